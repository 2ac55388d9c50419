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
	"bytes"
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// Marshal returns the canonical bencoding of v.
//
// Supported types: signed and unsigned integers, bool (encoded as i0e or
// i1e), string, []byte (encoded as a bencode string), other slices and
// arrays (encoded as lists), maps with string keys, and structs. Struct
// fields use `bencode:"name,omitempty"` tags; dictionary keys are always
// emitted in ascending byte order.
func Marshal(v any) ([]byte, error) {
	e := &encoder{}
	if err := e.marshal(reflect.ValueOf(v)); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

// encoder accumulates the output of a marshalling run.
type encoder struct {
	buf bytes.Buffer
}

// UnsupportedTypeError is returned by Marshal when it encounters a Go
// type with no bencode representation.
type UnsupportedTypeError struct {
	Type reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("bencode: unsupported type %s", e.Type)
}

// marshal writes the encoding of v into the encoder.
func (e *encoder) marshal(v reflect.Value) error {
marshal:
	switch v.Kind() {
	case reflect.Map:
		return e.marshalMap(v)
	case reflect.Struct:
		return e.marshalStruct(v)
	case reflect.String:
		e.marshalString([]byte(v.String()))
	case reflect.Array, reflect.Slice:
		return e.marshalArray(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.marshalInt(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		e.marshalUint(v.Uint())
	case reflect.Bool:
		if v.Bool() {
			e.marshalInt(1)
		} else {
			e.marshalInt(0)
		}
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return &UnsupportedTypeError{v.Type()}
		}
		v = v.Elem()
		goto marshal
	default:
		if !v.IsValid() {
			return &UnsupportedTypeError{nil}
		}
		return &UnsupportedTypeError{v.Type()}
	}

	return nil
}

// marshalMap writes a map as a dictionary with sorted keys.
func (e *encoder) marshalMap(v reflect.Value) error {
	if v.Type().Key().Kind() != reflect.String {
		return &UnsupportedTypeError{v.Type()}
	}

	e.buf.WriteByte('d')

	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})

	for _, key := range keys {
		e.marshalString([]byte(key.String()))

		if err := e.marshal(v.MapIndex(key)); err != nil {
			return err
		}
	}

	e.buf.WriteByte('e')
	return nil
}

// marshalStruct writes a struct as a dictionary. Fields are emitted in
// ascending key order; omitempty fields are dropped when empty.
func (e *encoder) marshalStruct(v reflect.Value) error {
	e.buf.WriteByte('d')

	for _, f := range fields(v.Type()).fields {
		d := v.FieldByIndex(f.index)

		if f.omitempty && isEmpty(d) {
			continue
		}

		e.marshalString([]byte(f.name))

		if err := e.marshal(d); err != nil {
			return err
		}
	}

	e.buf.WriteByte('e')
	return nil
}

// isEmpty checks whether a value should be dropped by omitempty: zero
// numbers, false, nil pointers and interfaces, and empty arrays, slices,
// maps, and strings.
func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Array, reflect.Slice, reflect.Map, reflect.String:
		return v.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}

// marshalString writes a length-prefixed bencode string.
func (e *encoder) marshalString(b []byte) {
	e.buf.WriteString(strconv.Itoa(len(b)))
	e.buf.WriteByte(':')
	e.buf.Write(b)
}

// marshalArray writes a slice or array. Byte slices and byte arrays are
// written as bencode strings, everything else as lists.
func (e *encoder) marshalArray(v reflect.Value) error {
	if v.Type().Elem().Kind() == reflect.Uint8 {
		e.marshalString(byteSlice(v))
		return nil
	}

	e.buf.WriteByte('l')

	length := v.Len()
	for i := 0; i < length; i++ {
		if err := e.marshal(v.Index(i)); err != nil {
			return err
		}
	}

	e.buf.WriteByte('e')
	return nil
}

// byteSlice returns the contents of a byte slice or byte array.
func byteSlice(v reflect.Value) []byte {
	if v.Kind() == reflect.Slice {
		return v.Bytes()
	}

	b := make([]byte, v.Len())
	for i := range b {
		b[i] = byte(v.Index(i).Uint())
	}
	return b
}

// marshalInt writes an integer of the form i<number>e.
func (e *encoder) marshalInt(n int64) {
	e.buf.WriteByte('i')
	e.buf.WriteString(strconv.FormatInt(n, 10))
	e.buf.WriteByte('e')
}

// marshalUint writes an unsigned integer of the form i<number>e.
func (e *encoder) marshalUint(n uint64) {
	e.buf.WriteByte('i')
	e.buf.WriteString(strconv.FormatUint(n, 10))
	e.buf.WriteByte('e')
}
