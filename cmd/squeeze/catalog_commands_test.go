package main

import (
	"encoding/json"
	"testing"
)

func TestProfilesCommand(t *testing.T) {
	out, _, err := runCLI(t, "", "profiles")
	if err != nil {
		t.Fatalf("profiles: %v", err)
	}
	requireContains(t, out, "H264_480p")
	requireContains(t, out, "H264 ReEncode (Default) *")
	requireContains(t, out, "source")

	out, _, err = runCLI(t, "", "profiles", "--json")
	if err != nil {
		t.Fatalf("profiles --json: %v", err)
	}
	var decoded []profileJSON
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("decode profiles json: %v\n%s", err, out)
	}
	if len(decoded) != 6 {
		t.Fatalf("expected 6 profiles, got %d", len(decoded))
	}
	defaults := 0
	for _, p := range decoded {
		if p.Default {
			defaults++
		}
	}
	if defaults != 1 || !decoded[0].Default || decoded[0].Width != -1 {
		t.Fatalf("unexpected default profile marking: %+v", decoded)
	}
}

func TestPresetsCommand(t *testing.T) {
	out, _, err := runCLI(t, "", "presets", "--json")
	if err != nil {
		t.Fatalf("presets --json: %v", err)
	}
	var names []string
	if err := json.Unmarshal([]byte(out), &names); err != nil {
		t.Fatalf("decode presets: %v", err)
	}
	if len(names) != 9 || names[0] != "ultrafast" || names[8] != "veryslow" {
		t.Fatalf("unexpected presets: %v", names)
	}

	out, _, err = runCLI(t, "", "presets")
	if err != nil {
		t.Fatalf("presets: %v", err)
	}
	requireContains(t, out, "medium")
}
