// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wire

import (
	"encoding/binary"
	"fmt"
)

// VarIntWidth identifies the width class of an encoded variable length integer
type VarIntWidth uint8

const (
	VarIntWidth1 VarIntWidth = iota // single byte value below 0xfd
	VarIntWidth3                    // 0xfd prefix, 2 byte value
	VarIntWidth5                    // 0xfe prefix, 4 byte value
	VarIntWidth9                    // 0xff prefix, 8 byte value
)

// Prefix bytes for the multi-byte width classes
const (
	VarIntPrefix16 = 0xfd
	VarIntPrefix32 = 0xfe
	VarIntPrefix64 = 0xff
)

type varIntClass struct {
	prefix byte
	size   int    // total encoded size including the prefix
	max    uint64 // largest value representable in this class
}

var varIntClasses = [...]varIntClass{
	VarIntWidth1: {size: 1, max: VarIntPrefix16 - 1},
	VarIntWidth3: {prefix: VarIntPrefix16, size: 3, max: 0xffff},
	VarIntWidth5: {prefix: VarIntPrefix32, size: 5, max: 0xffffffff},
	VarIntWidth9: {prefix: VarIntPrefix64, size: 9, max: 0xffffffffffffffff},
}

// varIntWidthForPrefix resolves the width class from the leading byte
func varIntWidthForPrefix(b byte) VarIntWidth {
	switch b {
	case VarIntPrefix16:
		return VarIntWidth3
	case VarIntPrefix32:
		return VarIntWidth5
	case VarIntPrefix64:
		return VarIntWidth9
	default:
		return VarIntWidth1
	}
}

func varIntWidthForValue(v uint64) VarIntWidth {
	for w, class := range varIntClasses {
		if v <= class.max {
			return VarIntWidth(w)
		}
	}
	return VarIntWidth9
}

// Size returns the number of bytes used by this width class, including the prefix
func (w VarIntWidth) Size() int {
	return varIntClasses[w].size
}

func (w VarIntWidth) String() string {
	return fmt.Sprintf("%d-byte", w.Size())
}

// DecodeVarInt decodes a variable length integer starting at offset. It returns the value
// and the number of bytes consumed
func DecodeVarInt(buf []byte, offset int) (uint64, int, error) {
	v, w, err := decodeVarInt(buf, offset)
	if err != nil {
		return 0, 0, err
	}
	return v, w.Size(), nil
}

func decodeVarInt(buf []byte, offset int) (uint64, VarIntWidth, error) {
	if offset < 0 || offset >= len(buf) {
		return 0, 0, fmt.Errorf(
			"%w: varint prefix at offset %d, buffer length %d",
			ErrTruncatedInput,
			offset,
			len(buf),
		)
	}
	w := varIntWidthForPrefix(buf[offset])
	size := w.Size()
	if len(buf)-offset < size {
		return 0, 0, fmt.Errorf(
			"%w: %s varint at offset %d needs %d bytes, have %d",
			ErrTruncatedInput,
			w,
			offset,
			size,
			len(buf)-offset,
		)
	}
	if w == VarIntWidth1 {
		return uint64(buf[offset]), w, nil
	}
	// Little-endian value following the prefix byte
	var v uint64
	for i := offset + size - 1; i > offset; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v, w, nil
}

// VarIntSize returns the encoded size of v
func VarIntSize(v uint64) int {
	return varIntWidthForValue(v).Size()
}

// EncodeVarInt returns the shortest encoding of v
func EncodeVarInt(v uint64) []byte {
	return AppendVarInt(make([]byte, 0, VarIntSize(v)), v)
}

// AppendVarInt appends the shortest encoding of v to dst
func AppendVarInt(dst []byte, v uint64) []byte {
	w := varIntWidthForValue(v)
	switch w {
	case VarIntWidth1:
		return append(dst, byte(v))
	case VarIntWidth3:
		dst = append(dst, VarIntPrefix16)
		return binary.LittleEndian.AppendUint16(dst, uint16(v))
	case VarIntWidth5:
		dst = append(dst, VarIntPrefix32)
		return binary.LittleEndian.AppendUint32(dst, uint32(v))
	default:
		dst = append(dst, VarIntPrefix64)
		return binary.LittleEndian.AppendUint64(dst, v)
	}
}

// AppendVarBytes appends a varint length prefix followed by data
func AppendVarBytes(dst []byte, data []byte) []byte {
	dst = AppendVarInt(dst, uint64(len(data)))
	return append(dst, data...)
}
