// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package serialscan

// fieldDesc is one entry of a class descriptor's field list: a
// typecode byte ('B','C','D','F','I','J','S','Z' for primitives, 'L'
// or '[' for object/array-typed fields), its name, and for L/[ fields
// a best-effort type-string (spec §4.C never resolves it to a real
// class; it is stored here and not reported to the Sink).
type fieldDesc struct {
	TypeCode   byte
	Name       string
	TypeString string
}

// classDescriptor is the walker's in-memory view of one parsed
// TC_CLASSDESC / TC_PROXYCLASSDESC record. Per spec §4.C's Non-goals
// ("does not resolve class definitions"), Super is recorded but never
// read; nothing recurses into field semantics across it.
type classDescriptor struct {
	Name             string
	SerialVersionUID int64
	Flags            byte
	Fields           []fieldDesc
	Super            *classDescriptor
}

func validateClassFlags(flags byte) error {
	if ScExternalizable.isSet(flags) && ScSerializable.isSet(flags) {
		return newScanError(KindInvalidClassFlags, -1,
			"class descriptor sets both SC_EXTERNALIZABLE and SC_SERIALIZABLE")
	}
	return nil
}

// readUTF reads the short (u16-length-prefixed) modified-UTF-8 string
// form used for class names, field names, and proxy interface names.
func (w *Walker) readUTF() (string, error) {
	n, err := w.block.ReadU16()
	if err != nil {
		return "", err
	}
	return w.block.ReadModifiedUTF(int(n))
}

// parseClassDescValue reads one class-descriptor-typed slot: TC_NULL
// (no superclass / no descriptor), TC_REFERENCE (a previously seen
// descriptor), or an inline TC_CLASSDESC / TC_PROXYCLASSDESC.
func (w *Walker) parseClassDescValue() (*classDescriptor, error) {
	tag, err := w.peekTag()
	if err != nil {
		return nil, err
	}
	switch TypeCode(tag) {
	case TcNull:
		if _, err := w.consumeTag(); err != nil {
			return nil, err
		}
		return nil, nil
	case TcReference:
		if _, err := w.consumeTag(); err != nil {
			return nil, err
		}
		h, err := w.readBackReference()
		if err != nil {
			return nil, err
		}
		return &classDescriptor{Name: w.handles[h].Label}, nil
	case TcClassDesc:
		if _, err := w.consumeTag(); err != nil {
			return nil, err
		}
		return w.parseSharedTail()
	case TcProxyClassDesc:
		if _, err := w.consumeTag(); err != nil {
			return nil, err
		}
		return w.parseProxyClassDesc()
	default:
		return nil, newScanError(KindCorruptedStream, -1,
			"expected a class descriptor, got tag %#02x", tag)
	}
}

// parseProxyClassDesc reads a dynamic-proxy descriptor: a declared
// interface count fed straight to the array-size analyzer (the
// amplification vector this record type exists to exercise), then
// that many raw interface-name strings, then the tail shared with
// non-proxy descriptors.
func (w *Walker) parseProxyClassDesc() (*classDescriptor, error) {
	n, err := w.block.ReadI32()
	if err != nil {
		return nil, err
	}
	if err := w.analyzer.AddArrayLength(n); err != nil {
		return nil, err
	}
	count := int(n)
	if count < 0 {
		count = 0
	}
	for i := 0; i < count; i++ {
		if _, err := w.readUTF(); err != nil {
			return nil, err
		}
	}
	return w.parseSharedTail()
}

// parseSharedTail reads the portion common to both descriptor
// variants: name, serialVersionUID, flags, field list, the
// descriptor's own custom-data annotation, and its superclass
// descriptor, finally assigning this descriptor's handle.
//
// The handle is assigned last, after the superclass chain has been
// fully parsed and so has already claimed whatever handles it needed
// — matching the grammar's writer order, where nested descriptors are
// written (and thus numbered) before the descriptor that refers to
// them finishes.
func (w *Walker) parseSharedTail() (*classDescriptor, error) {
	name, err := w.readUTF()
	if err != nil {
		return nil, err
	}
	suid, err := w.block.ReadI64()
	if err != nil {
		return nil, err
	}
	flags, err := w.block.ReadU8()
	if err != nil {
		return nil, err
	}
	if err := validateClassFlags(flags); err != nil {
		return nil, err
	}
	numFields, err := w.block.ReadI16()
	if err != nil {
		return nil, err
	}
	if numFields < 0 {
		return nil, newScanError(KindCorruptedStream, -1, "negative field count %d", numFields)
	}
	if ScEnum.isSet(flags) && (suid != 0 || numFields != 0) {
		return nil, newScanError(KindInvalidClassFlags, -1,
			"enum descriptor %q has nonzero serialVersionUID or field count", name)
	}

	fields := make([]fieldDesc, 0, numFields)
	for i := 0; i < int(numFields); i++ {
		tc, err := w.block.ReadU8()
		if err != nil {
			return nil, err
		}
		fname, err := w.readUTF()
		if err != nil {
			return nil, err
		}
		fd := fieldDesc{TypeCode: tc, Name: fname}
		if tc == 'L' || tc == '[' {
			ts, err := w.readTypeString()
			if err != nil {
				return nil, err
			}
			fd.TypeString = ts
		}
		fields = append(fields, fd)
	}

	if err := w.skipCustomData(); err != nil {
		return nil, err
	}
	super, err := w.parseClassDescValue()
	if err != nil {
		return nil, err
	}

	w.assignHandle(name, true)
	w.sink.Descriptor(name, suid, len(fields))
	return &classDescriptor{
		Name: name, SerialVersionUID: suid, Flags: flags, Fields: fields, Super: super,
	}, nil
}

// readTypeString reads an L/[ field's type-string slot: TC_NULL,
// TC_REFERENCE, TC_STRING, or TC_LONGSTRING.
func (w *Walker) readTypeString() (string, error) {
	tag, err := w.peekTag()
	if err != nil {
		return "", err
	}
	switch TypeCode(tag) {
	case TcNull:
		_, err := w.consumeTag()
		return "", err
	case TcReference:
		if _, err := w.consumeTag(); err != nil {
			return "", err
		}
		h, err := w.readBackReference()
		if err != nil {
			return "", err
		}
		return w.handles[h].Label, nil
	case TcString:
		if _, err := w.consumeTag(); err != nil {
			return "", err
		}
		return w.readStringValue()
	case TcLongString:
		if _, err := w.consumeTag(); err != nil {
			return "", err
		}
		return w.readLongStringValue()
	default:
		return "", newScanError(KindCorruptedStream, -1,
			"expected a type-string, got tag %#02x", tag)
	}
}

// skipCustomData skips a class descriptor's own annotation data: zero
// or more block-data frames, terminated by TC_ENDBLOCKDATA. An empty
// annotation is just the terminator by itself.
func (w *Walker) skipCustomData() error {
	for {
		tag, err := w.peekTag()
		if err != nil {
			return err
		}
		if TypeCode(tag) != TcBlockData && TypeCode(tag) != TcBlockDataLong {
			break
		}
		w.block.EnterBlockMode()
		if err := w.block.SkipToEndOfBlocks(); err != nil {
			return err
		}
		if err := w.block.ExitBlockMode(); err != nil {
			return err
		}
	}
	tag, err := w.peekTag()
	if err != nil {
		return err
	}
	if TypeCode(tag) == TcEndBlockData {
		_, err := w.consumeTag()
		return err
	}
	return nil
}
