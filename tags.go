// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package serialscan

// TypeCode is a stream tag byte, identifying the kind of record that
// follows in the grammar walker's dispatch loop.
type TypeCode byte

const (
	TcBase           TypeCode = 0x70
	TcNull           TypeCode = 0x70
	TcReference      TypeCode = 0x71
	TcClassDesc      TypeCode = 0x72
	TcObject         TypeCode = 0x73
	TcString         TypeCode = 0x74
	TcArray          TypeCode = 0x75
	TcClass          TypeCode = 0x76
	TcBlockData      TypeCode = 0x77
	TcEndBlockData   TypeCode = 0x78
	TcReset          TypeCode = 0x79
	TcBlockDataLong  TypeCode = 0x7A
	TcException      TypeCode = 0x7B
	TcLongString     TypeCode = 0x7C
	TcProxyClassDesc TypeCode = 0x7D
	TcEnum           TypeCode = 0x7E
	TcMax            TypeCode = 0x7E
)

func (t TypeCode) String() string {
	switch t {
	case TcNull:
		return "TC_NULL"
	case TcReference:
		return "TC_REFERENCE"
	case TcClassDesc:
		return "TC_CLASSDESC"
	case TcObject:
		return "TC_OBJECT"
	case TcString:
		return "TC_STRING"
	case TcArray:
		return "TC_ARRAY"
	case TcClass:
		return "TC_CLASS"
	case TcBlockData:
		return "TC_BLOCKDATA"
	case TcEndBlockData:
		return "TC_ENDBLOCKDATA"
	case TcReset:
		return "TC_RESET"
	case TcBlockDataLong:
		return "TC_BLOCKDATALONG"
	case TcException:
		return "TC_EXCEPTION"
	case TcLongString:
		return "TC_LONGSTRING"
	case TcProxyClassDesc:
		return "TC_PROXYCLASSDESC"
	case TcEnum:
		return "TC_ENUM"
	default:
		return "TC_UNKNOWN"
	}
}

// ClassDescFlag is a bit in a class descriptor's flags byte.
type ClassDescFlag byte

const (
	ScWriteMethod    ClassDescFlag = 0x01
	ScSerializable   ClassDescFlag = 0x02
	ScExternalizable ClassDescFlag = 0x04
	ScBlockData      ClassDescFlag = 0x08
	ScEnum           ClassDescFlag = 0x10
)

func (f ClassDescFlag) isSet(flags byte) bool {
	return flags&byte(f) != 0
}

const (
	// StreamMagic is the required first two bytes of a stream.
	StreamMagic uint16 = 0xACED
	// StreamVersion is the required next two bytes of a stream.
	StreamVersion uint16 = 0x0005

	// BaseWireHandle is the handle value the writer assigns to the
	// zeroth object; wire handles are baseWireHandle-relative.
	BaseWireHandle uint32 = 0x7E0000
)

const (
	// ArraySizeMax is the default ceiling on totalArraySize.
	ArraySizeMax int64 = 65536
	// ReferenceMax is the default ceiling on a single traversal's refCount.
	ReferenceMax int64 = 32768
)

// stringClassLabel is the synthetic class-table label assigned to
// TC_STRING / TC_LONGSTRING handles, since the wire format itself
// never spells out "this handle is a String" the way it does for
// TC_CLASSDESC / TC_OBJECT.
const stringClassLabel = "java.lang.String"
