package handler

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidSelection is returned for callback payloads that are not a
// known Selection.
var ErrInvalidSelection = errors.New("invalid selection")

// SelectionKind tags the action a results button triggers.
type SelectionKind int

const (
	SelectDownload SelectionKind = iota
	SelectAlbum
	SelectPage
	SelectNoop
)

const (
	prefixDownload = "download_"
	prefixAlbum    = "album_"
	prefixPage     = "page_"
	payloadNoop    = "noop"

	maxIndexDigits = 9
)

// Selection is the decoded callback payload of a results button.
type Selection struct {
	Kind SelectionKind
	// Index is the result index for downloads and albums, the zero based
	// page for page turns.
	Index int
}

// Encode renders the selection as callback data.
func (s Selection) Encode() string {
	switch s.Kind {
	case SelectAlbum:
		return prefixAlbum + strconv.Itoa(s.Index)
	case SelectPage:
		return prefixPage + strconv.Itoa(s.Index)
	case SelectNoop:
		return payloadNoop
	default:
		return prefixDownload + strconv.Itoa(s.Index)
	}
}

// ParseSelection decodes callback data. A bare non-negative integer is the
// legacy form of a download selection.
func ParseSelection(data string) (Selection, error) {
	if data == payloadNoop {
		return Selection{Kind: SelectNoop}, nil
	}
	for _, p := range []struct {
		prefix string
		kind   SelectionKind
	}{
		{prefixDownload, SelectDownload},
		{prefixAlbum, SelectAlbum},
		{prefixPage, SelectPage},
	} {
		if rest, ok := strings.CutPrefix(data, p.prefix); ok {
			index, err := parseIndex(rest)
			if err != nil {
				return Selection{}, err
			}
			return Selection{Kind: p.kind, Index: index}, nil
		}
	}
	index, err := parseIndex(data)
	if err != nil {
		return Selection{}, err
	}
	return Selection{Kind: SelectDownload, Index: index}, nil
}

func parseIndex(s string) (int, error) {
	if s == "" || len(s) > maxIndexDigits {
		return 0, ErrInvalidSelection
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrInvalidSelection
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrInvalidSelection
	}
	return n, nil
}
