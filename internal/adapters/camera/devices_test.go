package camera

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/bft-labs/paintwatch/internal/domain"
)

func TestParseDevices(t *testing.T) {
	got := parseDevices([]string{
		"/dev/video10",
		"/dev/video2",
		"/dev/video0",
		"/dev/video-meta",
		"/dev/videoX",
	})

	want := []domain.Device{
		{Index: 0, Path: "/dev/video0"},
		{Index: 2, Path: "/dev/video2"},
		{Index: 10, Path: "/dev/video10"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseDevices() = %v, want %v", got, want)
	}
}

func TestListDevices(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"video1", "video0", "null"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := listDevices(filepath.Join(dir, "video*"))
	if err != nil {
		t.Fatalf("listDevices() error = %v", err)
	}
	if len(got) != 2 || got[0].Index != 0 || got[1].Index != 1 {
		t.Errorf("listDevices() = %v, want video0 and video1", got)
	}
}
