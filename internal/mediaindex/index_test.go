package mediaindex

import "testing"

func TestIsMusicPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want bool
	}{
		{name: "plain music file", path: "/music/Artist/Album/01 Song.mp3", want: true},
		{name: "root level file", path: "/song.flac", want: true},
		{name: "ringtone", path: "/sdcard/Ringtones/beep.mp3", want: false},
		{name: "notification lowercase", path: "/sdcard/notifications/ding.ogg", want: false},
		{name: "alarm nested", path: "/storage/Media/Alarms/morning/wake.mp3", want: false},
		{name: "podcast", path: "/home/u/Podcasts/show/ep1.mp3", want: false},
		{name: "file named like a dir is still music", path: "/music/Ringtones.mp3", want: true},
		{name: "dir name as substring is music", path: "/music/MyAlarmsCollection/a.mp3", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsMusicPath(tt.path); got != tt.want {
				t.Errorf("IsMusicPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestEntryID(t *testing.T) {
	a := EntryID("/music/a.mp3")
	b := EntryID("/music/./a.mp3")
	c := EntryID("/music/b.mp3")

	if a != b {
		t.Errorf("EntryID not stable across equivalent paths: %s != %s", a, b)
	}
	if a == c {
		t.Errorf("EntryID collided for different paths: %s", a)
	}
}

func TestStringPtr(t *testing.T) {
	if got := StringPtr(""); got != nil {
		t.Errorf("StringPtr(\"\") = %v, want nil", *got)
	}
	if got := StringPtr("x"); got == nil || *got != "x" {
		t.Errorf("StringPtr(\"x\") = %v, want pointer to x", got)
	}
}

func TestChildPrefix(t *testing.T) {
	tests := []struct {
		dir  string
		want string
	}{
		{dir: "/music", want: "/music/"},
		{dir: "/music/", want: "/music/"},
		{dir: "/a/../music", want: "/music/"},
		{dir: "/", want: "/"},
	}

	for _, tt := range tests {
		if got := ChildPrefix(tt.dir); got != tt.want {
			t.Errorf("ChildPrefix(%q) = %q, want %q", tt.dir, got, tt.want)
		}
	}
}

func TestLikeChildren(t *testing.T) {
	tests := []struct {
		dir  string
		want string
	}{
		{dir: "/music", want: "/music/%"},
		{dir: "/music/", want: "/music/%"},
		{dir: "/my_music/100%", want: `/my\_music/100\%/%`},
	}

	for _, tt := range tests {
		if got := LikeChildren(tt.dir); got != tt.want {
			t.Errorf("LikeChildren(%q) = %q, want %q", tt.dir, got, tt.want)
		}
	}
}
