// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parallel owns the work buffer, inter-rank transport, claim
// protocol, and completed-ray bank (spec §4.F). Packed-ray
// serialization (spec §6) is hand-rolled on encoding/binary: no
// serializer in the example pack targets this kind of fixed, bit-packed
// wire layout, so this is the one place the core falls back to the
// standard library for something other than pure glue (see DESIGN.md).
package parallel

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cpmech/raytracing/mesh"
	"github.com/cpmech/raytracing/ray"
)

// RayWire is the decoded packed-ray payload before its element id has
// been resolved against the receiving rank's local mesh (UnpackRay has
// no mesh dependency; NewRayFromWire does the resolution).
type RayWire struct {
	ID                 int64
	Point              [3]float64
	Direction          [3]float64
	ElemID             int32
	IncomingSide       int32
	EndSet             bool
	EndPoint           [3]float64
	MaxDistance        float64
	ProcessorCrossings int32
	Intersections      int32
	TrajectoryChanges  int32
	Distance           float64
	Data               []float64
	AuxData            []float64
}

// PackRay serializes r into the wire layout of spec §6: data_size,
// aux_data_size, id, point, direction, element id, a bit-packed tuple
// of (incoming_side[16], end_set[1]) in word1 and
// (processor_crossings[16], intersections[24], trajectory_changes[16])
// in word2 — word2 is 64 bits wide to hold its three fields at the
// spec's own widths rather than truncating them to fit 32 — then the
// end point (3 coords, used to rehydrate an end-set ray), distance,
// max_distance, data[], aux_data[].
func PackRay(r *ray.Ray, elemID int32) []byte {
	var buf bytes.Buffer
	data, aux := r.Data(), r.AuxData()
	write := func(v interface{}) { _ = binary.Write(&buf, binary.LittleEndian, v) }

	write(int32(len(data)))
	write(int32(len(aux)))
	write(r.ID())
	write(r.CurrentPoint())
	write(r.Direction())
	write(elemID)

	var word1 uint32
	incoming := int32(r.CurrentIncomingSide())
	word1 = uint32(uint16(incoming))
	if r.EndSet() {
		word1 |= 1 << 16
	}
	write(word1)

	// word2 is the second of the two words spec §6 bit-packs
	// processor_crossings/intersections/trajectory_changes into, at
	// their full 16/24/16-bit widths (56 of word2's 64 bits); a uint32
	// could only give each field a fraction of that before saturating
	// far short of the spec's own field widths, so word2 is a 64-bit
	// word here rather than 32.
	var word2 uint64
	word2 |= clampBits(r.ProcessorCrossings(), 16) << 0
	word2 |= clampBits(r.Intersections(), 24) << 16
	word2 |= clampBits(r.TrajectoryChanges(), 16) << 40
	write(word2)

	write(r.EndPoint())
	write(r.Distance())
	write(r.MaxDistance())
	write(data)
	write(aux)
	return buf.Bytes()
}

// clampBits saturates a counter to the given bit width; a ray that
// crosses this many processor boundaries or segments in one trace is
// already well outside any fixture this core ships, so saturating
// (rather than wrapping) keeps the failure visible as an implausibly
// large count instead of a silently wrapped small one.
func clampBits(v, bits int) uint64 {
	if v < 0 {
		return 0
	}
	max := uint64(1)<<uint(bits) - 1
	if uint64(v) > max {
		return max
	}
	return uint64(v)
}

// UnpackRay decodes a packed ray payload into a RayWire, without
// resolving its element id.
func UnpackRay(buf []byte) (RayWire, error) {
	r := bytes.NewReader(buf)
	read := func(v interface{}) error { return binary.Read(r, binary.LittleEndian, v) }

	var dataSize, auxSize int32
	if err := read(&dataSize); err != nil {
		return RayWire{}, fmt.Errorf("unpack ray: data_size: %w", err)
	}
	if err := read(&auxSize); err != nil {
		return RayWire{}, fmt.Errorf("unpack ray: aux_data_size: %w", err)
	}
	var w RayWire
	if err := read(&w.ID); err != nil {
		return RayWire{}, fmt.Errorf("unpack ray: id: %w", err)
	}
	if err := read(&w.Point); err != nil {
		return RayWire{}, err
	}
	if err := read(&w.Direction); err != nil {
		return RayWire{}, err
	}
	if err := read(&w.ElemID); err != nil {
		return RayWire{}, err
	}
	var word1 uint32
	var word2 uint64
	if err := read(&word1); err != nil {
		return RayWire{}, err
	}
	if err := read(&word2); err != nil {
		return RayWire{}, err
	}
	w.IncomingSide = int32(int16(word1 & 0xFFFF))
	w.EndSet = word1&(1<<16) != 0
	w.ProcessorCrossings = int32((word2 >> 0) & 0xFFFF)
	w.Intersections = int32((word2 >> 16) & 0xFFFFFF)
	w.TrajectoryChanges = int32((word2 >> 40) & 0xFFFF)

	if err := read(&w.EndPoint); err != nil {
		return RayWire{}, err
	}
	if err := read(&w.Distance); err != nil {
		return RayWire{}, err
	}
	if err := read(&w.MaxDistance); err != nil {
		return RayWire{}, err
	}
	w.Data = make([]float64, dataSize)
	if dataSize > 0 {
		if err := read(w.Data); err != nil {
			return RayWire{}, err
		}
	}
	w.AuxData = make([]float64, auxSize)
	if auxSize > 0 {
		if err := read(w.AuxData); err != nil {
			return RayWire{}, err
		}
	}
	return w, nil
}

// NewRayFromWire resolves w.ElemID against elems and rehydrates the
// ray (spec §4.F: "the receiving rank rematerializes the ray with
// should_continue = true and trajectory_changed = false").
func NewRayFromWire(w RayWire, elems map[int]mesh.Element) (*ray.Ray, error) {
	elem, ok := elems[int(w.ElemID)]
	if !ok {
		return nil, fmt.Errorf("unpack ray %d: element %d not found on receiving rank", w.ID, w.ElemID)
	}
	return ray.Rehydrate(ray.NewRehydrateKey(), w.ID, w.Point, w.Direction, elem, int(w.IncomingSide), w.EndSet, w.EndPoint, w.MaxDistance,
		int(w.ProcessorCrossings), int(w.Intersections), int(w.TrajectoryChanges), w.Distance, w.Data, w.AuxData), nil
}
