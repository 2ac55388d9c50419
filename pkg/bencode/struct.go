// Copyright © 2024 The intermodal authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bencode

import (
	"reflect"
	"sort"
	"strings"
)

// field holds the data about a struct field required during marshalling
// and unmarshalling.
type field struct {
	index []int // field index chain in the struct

	name      string // bencode dictionary key
	omitempty bool   // skip the field when empty
}

// parseField parses a reflect.StructField and its bencode tag into a
// field. The second return value is false for ignored fields.
func parseField(f reflect.StructField) (field, bool) {
	if f.PkgPath != "" {
		// unexported
		return field{}, false
	}

	tag := f.Tag.Get("bencode")
	if tag == "-" {
		return field{}, false
	}

	// `bencode:"name,omitempty"`
	name, options, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}

	return field{
		index:     f.Index,
		name:      name,
		omitempty: hasOption(options, "omitempty"),
	}, true
}

func hasOption(options, target string) bool {
	for options != "" {
		var option string
		option, options, _ = strings.Cut(options, ",")
		if option == target {
			return true
		}
	}
	return false
}

// structFields holds the parsed fields of a struct type, ordered by their
// bencode keys, plus a name lookup into that ordering.
type structFields struct {
	fields []field
	names  map[string]int
}

// fields parses a struct type into its structFields, with fields sorted
// by dictionary key. Canonical bencode requires ascending key order, so
// the sorted order is also the emission order.
func fields(t reflect.Type) *structFields {
	s := &structFields{names: make(map[string]int)}

	n := t.NumField()
	for i := 0; i < n; i++ {
		f, ok := parseField(t.Field(i))
		if !ok {
			continue
		}

		s.fields = append(s.fields, f)
	}

	sort.Slice(s.fields, func(i, j int) bool {
		return s.fields[i].name < s.fields[j].name
	})

	for i, f := range s.fields {
		s.names[f.name] = i
	}

	return s
}
