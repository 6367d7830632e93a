// Package safemarshal reads length-checked values out of untrusted
// bytes. the underlying marshal lib panics on short input, so every
// read here checks remaining length first.
package safemarshal

import (
	"github.com/tchajed/marshal"
)

func ReadBool(b []byte) (data bool, rem []byte, err bool) {
	rem = b
	if uint64(len(rem)) < 1 {
		err = true
		return
	}
	data, rem = marshal.ReadBool(rem)
	return
}

func WriteBool(b []byte, data bool) []byte {
	return marshal.WriteBool(b, data)
}

func ReadInt(b []byte) (data uint64, rem []byte, err bool) {
	rem = b
	if uint64(len(rem)) < 8 {
		err = true
		return
	}
	data, rem = marshal.ReadInt(rem)
	return
}

func WriteInt(b []byte, data uint64) []byte {
	return marshal.WriteInt(b, data)
}

func ReadBytes(b []byte, length uint64) (data []byte, rem []byte, err bool) {
	rem = b
	if uint64(len(rem)) < length {
		err = true
		return
	}
	data, rem = marshal.ReadBytes(rem, length)
	return
}

func ReadSlice1D(b []byte) (data []byte, rem []byte, err bool) {
	rem = b
	length, rem, err := ReadInt(rem)
	if err {
		return
	}
	return ReadBytes(rem, length)
}

func WriteSlice1D(b []byte, data []byte) []byte {
	b = marshal.WriteInt(b, uint64(len(data)))
	return marshal.WriteBytes(b, data)
}

func ReadString(b []byte) (data string, rem []byte, err bool) {
	var raw []byte
	raw, rem, err = ReadSlice1D(b)
	if err {
		return
	}
	data = string(raw)
	return
}

func WriteString(b []byte, data string) []byte {
	return WriteSlice1D(b, []byte(data))
}
