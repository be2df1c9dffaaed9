package interp

import "github.com/vela-lang/layoutrt"

// GetEnumTagSinglePayloadSimple returns the case tag of a single-payload
// enum using the byte-level extra-inhabitant check the Simple dialect
// uses inline: a stored value of numEmptyCases or greater is the
// payload's own representation, not a spare extra-inhabitant pattern, and
// reads back as tag 0; a stored value below numEmptyCases is that index's
// empty case, and reads back as tag index+1 (§4.4, §4.6).
func GetEnumTagSinglePayloadSimple(addr []byte, xiTagBytes int, numEmptyCases int) int {
	if numEmptyCases == 0 {
		return 0
	}
	xi := LoadEnumElement(addr, 0, xiTagBytes)
	if xi >= uint64(numEmptyCases) {
		return 0
	}
	return int(xi) + 1
}

// InjectEnumTagSinglePayloadSimple is the inverse of
// GetEnumTagSinglePayloadSimple: tag 0 marks the payload case by writing
// numEmptyCases itself (any value at or above it reads back as the
// payload case), and tag in [1,numEmptyCases] writes that empty case's
// extra-inhabitant index, tag-1.
func InjectEnumTagSinglePayloadSimple(addr []byte, tag int, xiTagBytes int, numEmptyCases int) {
	if tag == 0 {
		StoreEnumElement(addr, 0, uint64(numEmptyCases), xiTagBytes)
		return
	}
	StoreEnumElement(addr, 0, uint64(tag-1), xiTagBytes)
}

// GetEnumTagSinglePayloadGeneric defers entirely to the payload type's
// own GetEnumTagSinglePayload value-witness function, for payload types
// whose extra-inhabitant representation the interpreter cannot inspect
// directly (resilient or generic payloads, §4.6).
func GetEnumTagSinglePayloadGeneric(addr []byte, payloadType *layoutrt.Metadata, numEmptyCases int) int {
	if payloadType == nil || payloadType.GetEnumTagSinglePayload == nil {
		layoutrt.Raise("GetEnumTagSinglePayloadGeneric", "payload metadata missing GetEnumTagSinglePayload")
	}
	return payloadType.GetEnumTagSinglePayload(addr, numEmptyCases)
}

// InjectEnumTagSinglePayloadGeneric is the inverse of
// GetEnumTagSinglePayloadGeneric.
func InjectEnumTagSinglePayloadGeneric(addr []byte, payloadType *layoutrt.Metadata, tag, numEmptyCases int) {
	if payloadType == nil || payloadType.StoreEnumTagSinglePayload == nil {
		layoutrt.Raise("InjectEnumTagSinglePayloadGeneric", "payload metadata missing StoreEnumTagSinglePayload")
	}
	payloadType.StoreEnumTagSinglePayload(addr, tag, numEmptyCases)
}

// GetEnumTagMultiPayload reads a multi-payload enum's discriminant
// directly: the low bits encode the case index when it fits entirely in
// the payload's own common spare bits, and any remaining high bits are
// the out-of-line "extra tag bits" stored immediately after the widest
// payload (§4.6, grounded on destructiveInjectEnumTagGeneric's split).
func GetEnumTagMultiPayload(addr []byte, numPayloadCases int, payloadSize int, extraTagBytes int) int {
	tag := int(LoadEnumElement(addr, 0, payloadSize))
	if extraTagBytes > 0 {
		extra := int(ReadTag(addr, payloadSize, extraTagBytes))
		tag |= extra << (8 * minInt(payloadSize, 4))
	}
	return tag
}

// InjectEnumTagMultiPayload is the inverse of GetEnumTagMultiPayload: it
// splits tag back into its payload-sized low bits and any extra tag
// bits stored past the widest payload.
func InjectEnumTagMultiPayload(addr []byte, tag int, payloadSize int, extraTagBytes int) {
	low := tag
	StoreEnumElement(addr, 0, uint64(low), payloadSize)
	if extraTagBytes > 0 {
		extra := tag >> (8 * minInt(payloadSize, 4))
		StoreTag(addr, payloadSize, uint64(extra), extraTagBytes)
	}
}

// SingletonEnumGetEnumTag always returns 0: a singleton enum (exactly one
// case) has no discriminant to read, and the original ABI's corresponding
// entry point is itself a constant function (§4.6).
func SingletonEnumGetEnumTag(addr []byte) int { return 0 }

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
