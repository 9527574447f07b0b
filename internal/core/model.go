package core

import "github.com/brinklang/brinkc/internal/ast"

// SectionID, OccID and LabelID are small dense integer handles assigned by
// the resolver and lowering passes, cheaper to carry around the linear op
// stream than string names.
type SectionID int
type OccID int
type LabelID int

const noOcc OccID = -1

// Triple is the location-counter coordinate spec.md §3 tracks: section
// offset, image offset, absolute address.
type Triple struct {
	SecOff  uint64
	ImgOff  uint64
	AbsAddr uint64
}

// component returns the LC field a PadTo operation targets.
func (t Triple) component(kind ast.PadKind) uint64 {
	switch kind {
	case ast.PadSec:
		return t.SecOff
	case ast.PadImg:
		return t.ImgOff
	default:
		return t.AbsAddr
	}
}

// sectionInfo is the resolver's record of one `section` definition.
type sectionInfo struct {
	id   SectionID
	name string
	span ast.Span
	decl *ast.Section
}

// occurrence is one embedding of a section into the image (spec.md §3).
// Start/End are filled in as the layout pass reaches them; StartKnown/
// EndKnown track whether that has happened yet in the current iteration.
type occurrence struct {
	id         OccID
	section    SectionID
	parent     OccID // noOcc for the root occurrence
	start, end Triple
	startKnown bool
	endKnown   bool
}

// label is one `name:` binding (spec.md §3), program-global.
type label struct {
	id       LabelID
	name     string
	span     ast.Span
	pos      Triple
	resolved bool
}
