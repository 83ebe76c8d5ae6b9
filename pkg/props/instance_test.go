package props

import (
	"errors"
	"testing"

	"github.com/cuekit-dev/cuekit/pkg/signal"
)

var pipelineType = NewType("Pipeline", nil, Schema{
	"uri": {Default: ""},
})

func TestAttachRegistersInstanceProperty(t *testing.T) {
	p := NewInstanceObject(pipelineType)
	p.Attach("volume", NewInstanceProperty(1.0))

	if !p.Attached("volume") {
		t.Fatal("expected volume to be attached")
	}
	if !containsName(p.PropertyNames(nil), "volume") {
		t.Errorf("expected volume in property names, got %v", p.PropertyNames(nil))
	}
	if !containsName(p.PropertyNames(nil), "uri") {
		t.Error("class properties must remain in the union")
	}
}

func TestInstancePropertyReadUnwraps(t *testing.T) {
	p := NewInstanceObject(pipelineType)
	p.Attach("volume", NewInstanceProperty(0.8))

	if got := p.Get("volume"); got != 0.8 {
		t.Errorf("expected unwrapped value 0.8, got %v", got)
	}
}

func TestSetInstallsBareWrapper(t *testing.T) {
	p := NewInstanceObject(pipelineType)

	// Assigning a wrapper value installs and registers it, without
	// change notification.
	count := 0
	p.PropertyChanged().Connect(func(Change) { count++ }, signal.Direct())

	p.Set("mute", NewInstanceProperty(false))

	if !p.Attached("mute") {
		t.Fatal("expected wrapper assignment to attach the property")
	}
	if count != 0 {
		t.Errorf("installation must not notify, got %d emissions", count)
	}
	if p.Get("mute") != false {
		t.Errorf("expected unwrapped false, got %v", p.Get("mute"))
	}
}

func TestInstancePropertyWriteDelegatesAndNotifies(t *testing.T) {
	p := NewInstanceObject(pipelineType)
	p.Attach("volume", NewInstanceProperty(1.0))

	var changes []Change
	p.PropertyChanged().Connect(func(c Change) { changes = append(changes, c) }, signal.Direct())

	sig, err := p.Changed("volume")
	if err != nil {
		t.Fatalf("Changed failed for attached property: %v", err)
	}
	var values []any
	sig.Connect(func(v any) { values = append(values, v) }, signal.Direct())

	p.Set("volume", 0.5)

	if got := p.Get("volume"); got != 0.5 {
		t.Errorf("expected delegated write to stick, got %v", got)
	}
	if len(changes) != 1 || changes[0].Name != "volume" || changes[0].Value != 0.5 {
		t.Errorf("unexpected aggregate emissions: %v", changes)
	}
	if changes[0].Object != Holder(p) {
		t.Errorf("aggregate payload should carry the instance object, got %T", changes[0].Object)
	}
	if len(values) != 1 || values[0] != 0.5 {
		t.Errorf("unexpected dedicated emissions: %v", values)
	}
}

func TestInstancePropertyHooks(t *testing.T) {
	p := NewInstanceObject(pipelineType)

	backing := 10
	p.Attach("level", NewInstanceProperty(10).WithHooks(
		func() any { return backing },
		func(v any) { backing = v.(int) },
	))

	if p.Get("level") != 10 {
		t.Errorf("expected hooked read 10, got %v", p.Get("level"))
	}
	p.Set("level", 20)
	if backing != 20 {
		t.Errorf("expected hooked write to reach backing store, got %d", backing)
	}
}

func TestCloneMaterializesHookedProperties(t *testing.T) {
	p := NewInstanceObject(pipelineType)

	backing := 10
	p.Attach("level", NewInstanceProperty(10).WithHooks(
		func() any { return backing },
		func(v any) { backing = v.(int) },
	))
	p.Set("level", 20)

	clone := p.Clone().(*InstanceObject)
	if !clone.Attached("level") {
		t.Fatal("expected level attached on the clone")
	}
	if clone.Get("level") != 20 {
		t.Errorf("expected clone to hold the hooked value at clone time, got %v", clone.Get("level"))
	}

	clone.Set("level", 99)
	if backing != 20 {
		t.Errorf("clone write must not reach the original's backing store, got %d", backing)
	}
	if p.Get("level") != 20 {
		t.Errorf("expected original unchanged, got %v", p.Get("level"))
	}

	backing = 55
	if clone.Get("level") != 99 {
		t.Errorf("expected clone storage independent of the hook, got %v", clone.Get("level"))
	}
}

func TestDetachRemovesInstanceProperty(t *testing.T) {
	p := NewInstanceObject(pipelineType)
	p.Attach("volume", NewInstanceProperty(1.0))
	p.Detach("volume")

	if p.Attached("volume") {
		t.Fatal("expected volume detached")
	}
	if containsName(p.PropertyNames(nil), "volume") {
		t.Error("detached name must leave the registry")
	}
	if _, err := p.Changed("volume"); !errors.Is(err, ErrNoProperty) {
		t.Errorf("expected ErrNoProperty after detach, got %v", err)
	}

	// Detaching again is a no-op.
	p.Detach("volume")
}

func TestInstancePropertiesSerialize(t *testing.T) {
	p := NewInstanceObject(pipelineType)
	p.Set("uri", "file:///music.ogg")
	p.Attach("volume", NewInstanceProperty(1.0))

	full := p.Properties(true, nil)
	if full["uri"] != "file:///music.ogg" || full["volume"] != 1.0 {
		t.Errorf("unexpected full export: %v", full)
	}

	// At its attach-time default the instance property stays out of the
	// sparse export.
	sparse := p.Properties(false, nil)
	if _, present := sparse["volume"]; present {
		t.Errorf("default-valued instance property leaked into sparse export: %v", sparse)
	}

	p.Set("volume", 0.2)
	sparse = p.Properties(false, nil)
	if sparse["volume"] != 0.2 {
		t.Errorf("expected overridden instance property in sparse export, got %v", sparse)
	}
}

func TestInstancePropertyUpdateProperties(t *testing.T) {
	p := NewInstanceObject(pipelineType)
	p.Attach("volume", NewInstanceProperty(1.0))

	p.UpdateProperties(Map{"volume": 0.3, "uri": "file:///a.wav", "bogus": 1})

	if p.Get("volume") != 0.3 {
		t.Errorf("expected volume 0.3, got %v", p.Get("volume"))
	}
	if p.Get("uri") != "file:///a.wav" {
		t.Errorf("expected uri update, got %v", p.Get("uri"))
	}
}

func TestInstanceLocalWinsOnCollision(t *testing.T) {
	p := NewInstanceObject(pipelineType)
	p.Set("uri", "class-value")
	p.Attach("uri", NewInstanceProperty("instance-value"))

	if got := p.Get("uri"); got != "instance-value" {
		t.Errorf("instance-local property should win reads, got %v", got)
	}

	p.Set("uri", "updated")
	if got := p.Get("uri"); got != "updated" {
		t.Errorf("writes should delegate into the instance property, got %v", got)
	}

	names := p.PropertyNames(nil)
	seen := 0
	for _, name := range names {
		if name == "uri" {
			seen++
		}
	}
	if seen != 1 {
		t.Errorf("collided name must appear once, got %v", names)
	}
}

func TestNestedHolderInstanceProperty(t *testing.T) {
	element := NewType("ElementFixture", nil, Schema{
		"gain": {Default: 1.0},
	})

	p := NewInstanceObject(pipelineType)
	p.Attach("eq", NewInstanceProperty(NewObject(element)))

	// Nested objects behind instance properties join serialization.
	full := p.Properties(true, nil)
	nested, ok := full["eq"].(Map)
	if !ok {
		t.Fatalf("expected nested map for attached element, got %v", full["eq"])
	}
	if nested["gain"] != 1.0 {
		t.Errorf("unexpected nested export: %v", nested)
	}

	sparse := p.Properties(false, nil)
	if _, present := sparse["eq"]; present {
		t.Errorf("all-default element must vanish from sparse export, got %v", sparse)
	}

	p.UpdateProperties(Map{"eq": Map{"gain": 0.4}})
	if got := p.Get("eq").(Holder).Get("gain"); got != 0.4 {
		t.Errorf("expected merged nested gain 0.4, got %v", got)
	}
}

func TestInstanceObjectClone(t *testing.T) {
	p := NewInstanceObject(pipelineType)
	p.Set("uri", "file:///b.wav")
	p.Attach("volume", NewInstanceProperty(1.0))
	p.Set("volume", 0.6)

	copied, ok := p.Clone().(*InstanceObject)
	if !ok {
		t.Fatal("expected clone to be an InstanceObject")
	}
	if !copied.Attached("volume") {
		t.Fatal("expected attached property on clone")
	}
	if copied.Get("volume") != 0.6 {
		t.Errorf("expected cloned volume 0.6, got %v", copied.Get("volume"))
	}

	copied.Set("volume", 0.1)
	if p.Get("volume") != 0.6 {
		t.Error("mutating the clone affected the source")
	}
}
