package v4l2request

import (
	"github.com/pion/logging"
)

// DPBEntry is one reference-picture slot.
type DPBEntry struct {
	Picture PictureH264

	// Age is the store generation at which the entry was last inserted or
	// referenced.
	Age uint32

	// Valid is set while the slot holds a picture.
	Valid bool
	// Reserved is set while the slot is earmarked for the picture being
	// decoded and has not been committed yet.
	Reserved bool
	// Used is set when the picture belongs to the current frame's reference set.
	Used bool
}

// LongTerm reports whether the picture was inserted as a long-term reference.
func (e *DPBEntry) LongTerm() bool {
	return e.Picture.Flags&PictureFlagLongTermReference != 0
}

// DPB tracks the decoded picture buffer of one H.264 decode context.
//
// Slots are a fixed array and never move: a slot's index is the value the
// kernel receives in reference lists, so every search is a linear scan.
// The zero value is an empty store. A DPB is not safe for concurrent use.
type DPB struct {
	entries [H264DPBSize]DPBEntry
	age     uint32

	log logging.LeveledLogger
}

// NewDPB creates an empty store. log may be nil.
func NewDPB(log logging.LeveledLogger) *DPB {
	return &DPB{log: log}
}

// Capacity returns the number of slots.
func (d *DPB) Capacity() int {
	return len(d.entries)
}

// Age returns the current generation counter.
func (d *DPB) Age() uint32 {
	return d.age
}

// Entry returns a pointer to slot i.
func (d *DPB) Entry(i int) *DPBEntry {
	return &d.entries[i]
}

// Entries returns a copy of every slot.
func (d *DPB) Entries() [H264DPBSize]DPBEntry {
	return d.entries
}

// Index returns the slot index of e, or -1 if e does not belong to d.
func (d *DPB) Index(e *DPBEntry) int {
	for i := range d.entries {
		if &d.entries[i] == e {
			return i
		}
	}
	return -1
}

// ValidCount returns the number of slots holding a picture.
func (d *DPB) ValidCount() int {
	n := 0
	for i := range d.entries {
		if d.entries[i].Valid {
			n++
		}
	}
	return n
}

// Reset empties every slot and restarts the generation counter.
func (d *DPB) Reset() {
	d.entries = [H264DPBSize]DPBEntry{}
	d.age = 0
}

// Lookup finds the valid entry holding id.
func (d *DPB) Lookup(id PictureID) (*DPBEntry, int, bool) {
	for i := range d.entries {
		entry := &d.entries[i]
		if !entry.Valid {
			continue
		}
		if entry.Picture.PictureID == id {
			return entry, i, true
		}
	}
	return nil, -1, false
}

// FindFree returns the first slot that is neither valid nor reserved.
func (d *DPB) FindFree() *DPBEntry {
	for i := range d.entries {
		entry := &d.entries[i]
		if !entry.Valid && !entry.Reserved {
			return entry
		}
	}
	return nil
}

// FindOldestUnused returns the unreferenced slot with the lowest age; the
// lowest index wins ties. Reserved slots are never returned.
func (d *DPB) FindOldestUnused() *DPBEntry {
	var match *DPBEntry
	minAge := ^uint32(0)

	for i := range d.entries {
		entry := &d.entries[i]
		if entry.Used || entry.Reserved {
			continue
		}
		if match == nil || entry.Age < minAge {
			minAge = entry.Age
			match = entry
		}
	}
	return match
}

// findOldest returns the valid, unreserved slot with the lowest age
// regardless of its Used flag. Slots holding a picture from keep are only
// returned when nothing else is left.
func (d *DPB) findOldest(keep []PictureH264) *DPBEntry {
	var match, fallback *DPBEntry
	for i := range d.entries {
		entry := &d.entries[i]
		if !entry.Valid || entry.Reserved {
			continue
		}
		if fallback == nil || entry.Age < fallback.Age {
			fallback = entry
		}
		if containsPicture(keep, entry.Picture.PictureID) {
			continue
		}
		if match == nil || entry.Age < match.Age {
			match = entry
		}
	}
	if match == nil {
		return fallback
	}
	return match
}

func containsPicture(pics []PictureH264, id PictureID) bool {
	for i := range pics {
		if !pics[i].IsNull() && pics[i].PictureID == id {
			return true
		}
	}
	return false
}

// Allocate picks a slot for a new picture: an empty slot while the buffer is
// filling, otherwise the least recently referenced unused one. It returns nil
// when every slot is in use.
func (d *DPB) Allocate() *DPBEntry {
	if entry := d.FindFree(); entry != nil {
		return entry
	}

	entry := d.FindOldestUnused()
	if entry != nil && entry.Valid && d.log != nil {
		d.log.Debugf("dpb: evicting picture %d from slot %d (age %d)",
			entry.Picture.PictureID, d.Index(entry), entry.Age)
	}
	return entry
}

// Clear zeroes e and optionally marks it reserved.
func (d *DPB) Clear(e *DPBEntry, reserved bool) {
	*e = DPBEntry{}
	if reserved {
		e.Reserved = true
	}
}

// releaseReservations drops reservations left behind by a frame that never
// reached Commit.
func (d *DPB) releaseReservations() {
	for i := range d.entries {
		if d.entries[i].Reserved && !d.entries[i].Valid {
			d.entries[i].Reserved = false
		}
	}
}

// Reserve claims e for the picture being decoded. Reserved slots are skipped
// by the allocator until Commit.
func (d *DPB) Reserve(e *DPBEntry) {
	d.Clear(e, true)
}

// Commit stores pic into the slot previously claimed with Reserve.
func (d *DPB) Commit(e *DPBEntry, pic PictureH264) {
	d.Insert(pic, e)
}

// Insert stores pic in target, or in a freshly allocated slot when target is
// nil. Null pictures and pictures already present are ignored.
func (d *DPB) Insert(pic PictureH264, target *DPBEntry) {
	if pic.IsNull() {
		return
	}
	if _, _, ok := d.Lookup(pic.PictureID); ok {
		return
	}

	entry := target
	if entry == nil {
		entry = d.Allocate()
	}
	if entry == nil {
		if d.log != nil {
			d.log.Debugf("dpb: no slot for picture %d, dropped", pic.PictureID)
		}
		return
	}

	entry.Picture = pic
	entry.Age = d.age
	entry.Valid = true
	entry.Reserved = false
	entry.Used = pic.Flags&PictureFlagInvalid == 0
}

// Update reconciles the store with the reference set declared for the
// current frame. It must run before the current picture is committed so that
// a frame never references itself.
func (d *DPB) Update(refs []PictureH264) {
	d.age++

	for i := range d.entries {
		d.entries[i].Used = false
	}

	for i := range refs {
		pic := refs[i]
		if pic.IsNull() {
			continue
		}

		if entry, _, ok := d.Lookup(pic.PictureID); ok {
			entry.Age = d.age
			entry.Used = true
		} else {
			d.Insert(pic, nil)
		}
	}
}
