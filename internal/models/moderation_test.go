package models

import (
	"testing"
)

func TestParseContentType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ContentType
		wantErr bool
	}{
		{name: "Text", input: "text", want: ContentTypeText},
		{name: "Image", input: "image", want: ContentTypeImage},
		{name: "Upper case", input: "TEXT", wantErr: true},
		{name: "Empty", input: "", wantErr: true},
		{name: "Video", input: "video", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseContentType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseContentType() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseContentType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContentType_Statuses(t *testing.T) {
	if ContentTypeText.SafeStatus() != "Safe Text" || ContentTypeText.HarmfulStatus() != "Toxic Text" {
		t.Errorf("unexpected text vocabulary: %q/%q", ContentTypeText.SafeStatus(), ContentTypeText.HarmfulStatus())
	}
	if ContentTypeImage.SafeStatus() != "Safe Image" || ContentTypeImage.HarmfulStatus() != "NSFW Image" {
		t.Errorf("unexpected image vocabulary: %q/%q", ContentTypeImage.SafeStatus(), ContentTypeImage.HarmfulStatus())
	}
	if ContentType("video").SafeStatus() != "" {
		t.Error("expected no status for unknown content type")
	}
}

func TestModerationDecision_IsHarmful(t *testing.T) {
	for status, want := range map[string]bool{
		StatusSafeText:  false,
		StatusToxicText: true,
		StatusSafeImage: false,
		StatusNSFWImage: true,
		"toxic":         false,
		"unsafe":        false,
	} {
		d := ModerationDecision{Status: status}
		if d.IsHarmful() != want {
			t.Errorf("IsHarmful(%q) = %v, want %v", status, d.IsHarmful(), want)
		}
	}
}
