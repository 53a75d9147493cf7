package cache

import (
	"net/http"
	"testing"
	"time"
)

func TestEntry_IsExpired(t *testing.T) {
	tests := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{
			name:    "expired entry",
			expires: time.Now().Add(-1 * time.Hour),
			want:    true,
		},
		{
			name:    "valid entry",
			expires: time.Now().Add(1 * time.Hour),
			want:    false,
		},
		{
			name:    "just expired",
			expires: time.Now().Add(-1 * time.Second),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &Entry{Expires: tt.expires}
			if got := entry.IsExpired(); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntry_TTL(t *testing.T) {
	tests := []struct {
		name    string
		expires time.Time
		wantMin time.Duration
		wantMax time.Duration
	}{
		{
			name:    "one hour remaining",
			expires: time.Now().Add(1 * time.Hour),
			wantMin: 59 * time.Minute,
			wantMax: 61 * time.Minute,
		},
		{
			name:    "already expired",
			expires: time.Now().Add(-1 * time.Hour),
			wantMin: 0,
			wantMax: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &Entry{Expires: tt.expires}
			ttl := entry.TTL()
			if ttl < tt.wantMin || ttl > tt.wantMax {
				t.Errorf("TTL() = %v, want between %v and %v", ttl, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestNewEntry(t *testing.T) {
	headers := http.Header{}
	headers.Set("ETag", `"abc123"`)
	headers.Set("Expires", time.Now().Add(10*time.Minute).Format(http.TimeFormat))

	entry := NewEntry([]byte(`[{"id": 1}]`), headers, 3)

	if entry.ETag != `"abc123"` {
		t.Errorf("ETag = %q, want %q", entry.ETag, `"abc123"`)
	}
	if entry.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", entry.TotalPages)
	}
	if string(entry.Data) != `[{"id": 1}]` {
		t.Errorf("Data = %s, want the payload", entry.Data)
	}
	if ttl := entry.TTL(); ttl < 9*time.Minute || ttl > 11*time.Minute {
		t.Errorf("TTL() = %v, want about 10 minutes from the Expires header", ttl)
	}
}

func TestNewEntry_MissingExpiresUsesDefaultTTL(t *testing.T) {
	entry := NewEntry([]byte(`[]`), http.Header{}, 1)

	ttl := entry.TTL()
	if ttl < DefaultTTL-time.Minute || ttl > DefaultTTL+time.Minute {
		t.Errorf("TTL() = %v, want about DefaultTTL (%v)", ttl, DefaultTTL)
	}
}

func TestNewEntry_UnparseableExpiresUsesDefaultTTL(t *testing.T) {
	headers := http.Header{}
	headers.Set("Expires", "not a date")

	entry := NewEntry([]byte(`[]`), headers, 1)
	ttl := entry.TTL()
	if ttl < DefaultTTL-time.Minute || ttl > DefaultTTL+time.Minute {
		t.Errorf("TTL() = %v, want about DefaultTTL (%v)", ttl, DefaultTTL)
	}
}

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "plain resource",
			key:  Key{Resource: "cursus_users", Page: 2, PageSize: 100},
			want: "intra:cursus_users:page=2:size=100",
		},
		{
			name: "slashes trimmed",
			key:  Key{Resource: "/projects/", Page: 1, PageSize: 50},
			want: "intra:projects:page=1:size=50",
		},
		{
			name: "filters stay in the key",
			key:  Key{Resource: "cursus_users?filter[campus_id]=31", Page: 3, PageSize: 100},
			want: "intra:cursus_users?filter[campus_id]=31:page=3:size=100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKey_String_Deterministic(t *testing.T) {
	key := Key{Resource: "cursus_users", Page: 2, PageSize: 100}
	if key.String() != key.String() {
		t.Error("Key.String() must be deterministic")
	}

	other := Key{Resource: "cursus_users", Page: 2, PageSize: 50}
	if key.String() == other.String() {
		t.Error("Different page sizes must not share cache keys")
	}
}
