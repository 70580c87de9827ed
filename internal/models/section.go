// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

package models

import "fmt"

// SectionType selects the pool a layout section draws from.
type SectionType string

const (
	SectionSingleLong      SectionType = "single_long"
	SectionShortsGrid      SectionType = "shorts_grid"
	SectionLongSlider      SectionType = "long_slider"
	SectionSideSliderLeft  SectionType = "side_slider_left"
	SectionSideSliderRight SectionType = "side_slider_right"
)

// DefaultCapacity is the item count used when a section leaves Capacity at zero.
// Unknown types have no default.
func (t SectionType) DefaultCapacity() int {
	switch t {
	case SectionSingleLong:
		return 1
	case SectionShortsGrid:
		return 4
	case SectionLongSlider:
		return 8
	case SectionSideSliderLeft, SectionSideSliderRight:
		return 10
	default:
		return 0
	}
}

// Accepts reports whether items of kind k may be placed in this section type.
func (t SectionType) Accepts(k Kind) bool {
	switch t {
	case SectionShortsGrid:
		return k == KindShort
	case SectionSingleLong, SectionLongSlider:
		return k == KindLong
	case SectionSideSliderLeft, SectionSideSliderRight:
		return true
	default:
		return false
	}
}

// Section is one slot on the feed page layout.
type Section struct {
	ID       string      `json:"id,omitempty" validate:"omitempty,max=128"`
	Type     SectionType `json:"type" validate:"required,oneof=single_long shorts_grid long_slider side_slider_left side_slider_right"`
	Capacity int         `json:"capacity,omitempty" validate:"gte=0,lte=100"`
	Label    string      `json:"label,omitempty" validate:"max=256"`
}

// Key returns the section id, or "section-<index>" when it has none.
func (s Section) Key(index int) string {
	if s.ID != "" {
		return s.ID
	}
	return fmt.Sprintf("section-%d", index)
}

// EffectiveCapacity returns Capacity, or the type default when Capacity is zero.
func (s Section) EffectiveCapacity() int {
	if s.Capacity > 0 {
		return s.Capacity
	}
	return s.Type.DefaultCapacity()
}
