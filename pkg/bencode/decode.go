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
	"fmt"
	"reflect"
	"strconv"

	"github.com/rrybarczyk/intermodal/pkg/bencode/scanner"
	"github.com/rrybarczyk/intermodal/pkg/bencode/token"
)

// Unmarshal parses the bencode data and stores the result in the value
// pointed to by v. The whole input must be a single canonical bencode
// value; anything else fails with a *scanner.SyntaxError.
//
// Dictionary keys with no matching destination field are skipped.
func Unmarshal(data []byte, v any) error {
	d := &decoder{scanner: scanner.New(data)}
	return d.unmarshal(v)
}

// Valid reports whether data is a single canonical bencode value.
func Valid(data []byte) bool {
	return scanner.Valid(data)
}

// decoder is a state machine which walks the tokens produced by its
// scanner and unmarshals them into the provided destination.
type decoder struct {
	scanner *scanner.Scanner

	offset int         // offset in the token stream
	curr   token.Token // most recently consumed token
}

// syntaxPanicMsg is used to panic when the decoder sees a token sequence
// the scanner should never have produced.
const syntaxPanicMsg = "bencode: invalid token stream without scanner error"

// UnmarshalTypeError reports a bencode value that cannot be stored in the
// destination Go type.
type UnmarshalTypeError struct {
	Value  string       // description of the bencode value
	Type   reflect.Type // the destination Go type
	Offset int          // offset of the value in the source
}

func (e *UnmarshalTypeError) Error() string {
	return fmt.Sprintf("bencode: cannot unmarshal %s into Go value of type %s", e.Value, e.Type)
}

// InvalidUnmarshalError reports an invalid destination passed to
// Unmarshal: anything other than a non-nil pointer.
type InvalidUnmarshalError struct {
	Type reflect.Type
}

func (e *InvalidUnmarshalError) Error() string {
	switch {
	case e.Type == nil:
		return "bencode: Unmarshal(nil)"
	case e.Type.Kind() != reflect.Pointer:
		return fmt.Sprintf("bencode: Unmarshal(non-pointer %s)", e.Type)
	default:
		return fmt.Sprintf("bencode: Unmarshal(nil %s)", e.Type)
	}
}

// unmarshal tokenizes the source and decodes the value into v.
func (d *decoder) unmarshal(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &InvalidUnmarshalError{reflect.TypeOf(v)}
	}

	if err := d.scanner.Valid(); err != nil {
		return err
	}

	return d.value(rv)
}

// value decodes the next value from the token stream into v.
func (d *decoder) value(v reflect.Value) error {
	switch d.peek().Type {
	case token.DICT:
		return d.dict(v)
	case token.LIST:
		return d.list(v)
	case token.INTEGER:
		return d.integer(v)
	case token.STRING:
		return d.string(v)
	default:
		panic(syntaxPanicMsg)
	}
}

// valueInterface decodes the next value into its natural Go type: int64,
// string, []any, or map[string]any.
func (d *decoder) valueInterface() (any, error) {
	switch d.peek().Type {
	case token.DICT:
		return d.dictInterface()
	case token.LIST:
		return d.listInterface()
	case token.INTEGER:
		return d.integerInterface()
	case token.STRING:
		return d.stringInterface()
	default:
		panic(syntaxPanicMsg)
	}
}

// skipValue consumes and discards the next value from the token stream.
func (d *decoder) skipValue() {
	switch d.peek().Type {
	case token.DICT, token.LIST:
		d.next()
		for !d.consume(token.END) {
			skipAssert(!d.match(token.ILLEGAL))
			d.skipValue()
		}
	case token.INTEGER, token.STRING:
		d.next()
	default:
		panic(syntaxPanicMsg)
	}
}

func skipAssert(ok bool) {
	if !ok {
		panic(syntaxPanicMsg)
	}
}

// dict decodes a dictionary into v, which must be a map with string keys,
// a struct, or an empty interface.
func (d *decoder) dict(v reflect.Value) error {
	v, ok := indirect(v)
	if !ok {
		return &UnmarshalTypeError{Value: "dictionary", Type: v.Type(), Offset: d.peek().Offset}
	}

	// fs holds the destination's field set when it is a struct
	var fs *structFields

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return &UnmarshalTypeError{Value: "dictionary", Type: v.Type(), Offset: d.peek().Offset}
		}

		if v.IsNil() {
			v.Set(reflect.MakeMap(v.Type()))
		}
	case reflect.Struct:
		fs = fields(v.Type())
	case reflect.Interface:
		if isAny(v) {
			value, err := d.dictInterface()
			if err != nil {
				return err
			}

			v.Set(reflect.ValueOf(value))
			return nil
		}

		fallthrough
	default:
		return &UnmarshalTypeError{Value: "dictionary", Type: v.Type(), Offset: d.peek().Offset}
	}

	d.mustConsume(token.DICT)

	for d.consume(token.STRING) {
		key := string(d.curr.StringBytes())

		switch v.Kind() {
		case reflect.Map:
			// decode into a temporary of the element type
			f := reflect.New(v.Type().Elem())
			if err := d.value(f); err != nil {
				return err
			}

			v.SetMapIndex(reflect.ValueOf(key).Convert(v.Type().Key()), f.Elem())
		case reflect.Struct:
			i, found := fs.names[key]
			if !found {
				// unknown key, discard its value
				d.skipValue()
				continue
			}

			if err := d.value(v.FieldByIndex(fs.fields[i].index)); err != nil {
				return err
			}
		}
	}

	d.mustConsume(token.END)
	return nil
}

// dictInterface decodes a dictionary into a map[string]any.
func (d *decoder) dictInterface() (any, error) {
	d.mustConsume(token.DICT)

	v := make(map[string]any)

	for d.consume(token.STRING) {
		key := string(d.curr.StringBytes())

		value, err := d.valueInterface()
		if err != nil {
			return nil, err
		}

		v[key] = value
	}

	d.mustConsume(token.END)
	return v, nil
}

// list decodes a list into v, which must be a slice, an array, or an
// empty interface.
func (d *decoder) list(v reflect.Value) error {
	v, ok := indirect(v)
	if !ok {
		return &UnmarshalTypeError{Value: "list", Type: v.Type(), Offset: d.peek().Offset}
	}

	switch v.Kind() {
	case reflect.Array, reflect.Slice:
	case reflect.Interface:
		if isAny(v) {
			value, err := d.listInterface()
			if err != nil {
				return err
			}

			v.Set(reflect.ValueOf(value))
			return nil
		}

		fallthrough
	default:
		return &UnmarshalTypeError{Value: "list", Type: v.Type(), Offset: d.peek().Offset}
	}

	d.mustConsume(token.LIST)

	for i := 0; !d.match(token.END); i++ {
		skipAssert(!d.match(token.ILLEGAL))

		if v.Kind() == reflect.Slice {
			if i >= v.Cap() {
				v.Grow(1)
			}
			if i >= v.Len() {
				v.SetLen(i + 1)
			}
		}

		if i < v.Len() {
			if err := d.value(v.Index(i)); err != nil {
				return err
			}
		} else {
			// past the end of a fixed-size array
			d.skipValue()
		}
	}

	// a nil slice decodes from an empty list as a non-nil empty slice
	if v.Kind() == reflect.Slice && v.IsNil() {
		v.Set(reflect.MakeSlice(v.Type(), 0, 0))
	}

	d.mustConsume(token.END)
	return nil
}

// listInterface decodes a list into a []any.
func (d *decoder) listInterface() (any, error) {
	d.mustConsume(token.LIST)

	v := []any{}

	for !d.consume(token.END) {
		skipAssert(!d.match(token.ILLEGAL))

		value, err := d.valueInterface()
		if err != nil {
			return nil, err
		}

		v = append(v, value)
	}

	return v, nil
}

// integer decodes an integer into v.
func (d *decoder) integer(v reflect.Value) error {
	d.mustConsume(token.INTEGER)
	literal := d.curr.Number()

	v, ok := indirect(v)
	if !ok {
		return &UnmarshalTypeError{Value: "integer " + literal, Type: v.Type(), Offset: d.curr.Offset}
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(literal, 10, 64)
		if err == nil && !v.OverflowInt(n) {
			v.SetInt(n)
			return nil
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := strconv.ParseUint(literal, 10, 64)
		if err == nil && !v.OverflowUint(n) {
			v.SetUint(n)
			return nil
		}

	case reflect.Bool:
		// the conventional encoding of flags like "private"
		n, err := strconv.ParseInt(literal, 10, 64)
		if err == nil {
			v.SetBool(n != 0)
			return nil
		}

	case reflect.Interface:
		if !isAny(v) {
			break
		}

		n, err := strconv.ParseInt(literal, 10, 64)
		if err != nil {
			return &UnmarshalTypeError{Value: "integer " + literal, Type: v.Type(), Offset: d.curr.Offset}
		}

		v.Set(reflect.ValueOf(n))
		return nil
	}

	return &UnmarshalTypeError{Value: "integer " + literal, Type: v.Type(), Offset: d.curr.Offset}
}

// integerInterface decodes an integer into an int64.
func (d *decoder) integerInterface() (any, error) {
	d.mustConsume(token.INTEGER)
	return strconv.ParseInt(d.curr.Number(), 10, 64)
}

// string decodes a string into v, which must be a string, a []byte, or an
// empty interface.
func (d *decoder) string(v reflect.Value) error {
	d.mustConsume(token.STRING)
	literal := d.curr.StringBytes()

	v, ok := indirect(v)
	if !ok {
		return &UnmarshalTypeError{Value: "string", Type: v.Type(), Offset: d.curr.Offset}
	}

	switch v.Kind() {
	case reflect.String:
		v.SetString(string(literal))
		return nil

	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, len(literal))
			copy(b, literal)
			v.SetBytes(b)
			return nil
		}

	case reflect.Interface:
		if isAny(v) {
			v.Set(reflect.ValueOf(string(literal)))
			return nil
		}
	}

	return &UnmarshalTypeError{Value: "string", Type: v.Type(), Offset: d.curr.Offset}
}

// stringInterface decodes a string into a Go string.
func (d *decoder) stringInterface() (any, error) {
	d.mustConsume(token.STRING)
	return string(d.curr.StringBytes()), nil
}

// mustConsume consumes a token of type t or panics; the scanner has
// already validated the stream, so a mismatch is a bug.
func (d *decoder) mustConsume(t token.Type) {
	if !d.consume(t) {
		panic(syntaxPanicMsg)
	}
}

// consume consumes the next token if it has type t.
func (d *decoder) consume(t token.Type) bool {
	if !d.match(t) {
		return false
	}

	d.next()
	return true
}

// next consumes the next token from the token stream.
func (d *decoder) next() {
	d.curr = d.peek()

	if !d.atEnd() {
		d.offset++
	}
}

// match checks whether the next token has type t.
func (d *decoder) match(t token.Type) bool {
	return d.peek().Type == t
}

// peek returns the next token, or an ILLEGAL token at the end of the
// stream.
func (d *decoder) peek() token.Token {
	if d.atEnd() {
		return token.Token{Type: token.ILLEGAL}
	}

	return d.scanner.Tokens[d.offset]
}

// atEnd checks whether the end of the token stream has been reached.
func (d *decoder) atEnd() bool {
	return d.offset >= len(d.scanner.Tokens)
}

// indirect dereferences v through pointers, allocating as needed, and
// reports whether the result is settable.
func indirect(v reflect.Value) (reflect.Value, bool) {
	v0 := v
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}

		v = reflect.Indirect(v)
	}

	if v.IsValid() && v.CanSet() {
		return v, true
	}

	return v0, false
}

// isAny checks whether v is an empty interface value.
func isAny(v reflect.Value) bool {
	return v.Kind() == reflect.Interface && v.NumMethod() == 0
}
