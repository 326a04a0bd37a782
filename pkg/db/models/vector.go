package models

import (
	"database/sql/driver"
	"encoding/binary"
	"fmt"
	"math"
)

// Vector is an embedding stored as a little-endian float32 blob
type Vector []float32

// GormDataType maps the column to bytea on postgres and blob on sqlite
func (Vector) GormDataType() string {
	return "bytes"
}

// Value implements driver.Valuer
func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	b := make([]byte, 4*len(v))
	for i := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(v[i]))
	}
	return b, nil
}

// Scan implements sql.Scanner
func (v *Vector) Scan(src interface{}) error {
	var b []byte
	switch s := src.(type) {
	case nil:
		*v = nil
		return nil
	case []byte:
		b = s
	case string:
		b = []byte(s)
	default:
		return fmt.Errorf("cannot scan %T into Vector", src)
	}

	if len(b)%4 != 0 {
		return fmt.Errorf("invalid vector blob length %d", len(b))
	}

	out := make(Vector, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	*v = out
	return nil
}

// Float64s returns a float64 copy of the vector
func (v Vector) Float64s() []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}
