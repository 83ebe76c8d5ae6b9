// Package cue defines the show-object schema built on the reactive
// property model: generic cues with fade envelopes, and media cues whose
// pipeline is assembled from dynamically attached elements.
package cue

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/cuekit-dev/cuekit/pkg/props"
)

// Fade describes one fade envelope of a cue.
var Fade = props.NewType("Fade", nil, props.Schema{
	"duration": {Default: 0.0},
	"curve":    {Default: "linear"},
})

// Cue is the base schema every show object shares.
var Cue = props.NewType("Cue", nil, props.Schema{
	"id":          {Default: ""},
	"name":        {Default: "Untitled"},
	"description": {Default: ""},
	"duration":    {Default: 0},
	"prewait":     {Default: 0.0},
	"postwait":    {Default: 0.0},
	"stylesheet":  {Default: ""},
	"fadein":      {Default: props.NewObject(Fade)},
	"fadeout":     {Default: props.NewObject(Fade)},
})

// Media is the playback pipeline carried by media cues. Its static schema
// covers the source; the processing elements are attached per instance.
var Media = props.NewType("Media", nil, props.Schema{
	"uri":      {Default: ""},
	"duration": {Default: 0},
	"loop":     {Default: 0},
})

// MediaCue extends Cue with a nested media pipeline.
var MediaCue = props.NewType("MediaCue", Cue, props.Schema{
	"media": {Default: props.NewInstanceObject(Media)},
})

// Volume is the gain element of a media pipeline.
var Volume = props.NewType("Volume", nil, props.Schema{
	"volume": {Default: 1.0},
	"mute":   {Default: false},
})

// Speed is the playback-rate element of a media pipeline.
var Speed = props.NewType("Speed", nil, props.Schema{
	"speed": {Default: 1.0},
})

// New creates a cue with a fresh id.
func New() *props.Object {
	c := props.NewObject(Cue)
	c.Set("id", newID())
	return c
}

// NewMediaCue creates a media cue with a fresh id. The nested media object
// starts with no elements attached.
func NewMediaCue() *props.Object {
	c := props.NewObject(MediaCue)
	c.Set("id", newID())
	return c
}

// MediaOf returns the nested media pipeline of a media cue, or nil if the
// cue has none.
func MediaOf(c props.Holder) *props.InstanceObject {
	m, _ := c.Get("media").(*props.InstanceObject)
	return m
}

// AttachElement attaches element under name as an instance property of the
// media pipeline, making it part of the cue's serialized state.
func AttachElement(m *props.InstanceObject, name string, element props.Holder) {
	m.Attach(name, props.NewInstanceProperty(element))
}

// NewVolume creates a volume element.
func NewVolume() *props.Object {
	return props.NewObject(Volume)
}

// NewSpeed creates a speed element.
func NewSpeed() *props.Object {
	return props.NewObject(Speed)
}

func newID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
