package command

import (
	"reflect"
	"testing"
)

func TestNormalizeArgs(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want map[string]any
	}{
		{
			name: "comma equals pairs",
			in:   "a=1,b=2",
			want: map[string]any{"a": "1", "b": "2"},
		},
		{
			name: "ampersand colon pairs",
			in:   "a:1&b:2",
			want: map[string]any{"a": "1", "b": "2"},
		},
		{
			name: "comma wins over ampersand",
			in:   "url=http://x&y,mode=fast",
			want: map[string]any{"url": "http://x&y", "mode": "fast"},
		},
		{
			name: "equals wins over colon within a pair",
			in:   "addr=host:1883",
			want: map[string]any{"addr": "host:1883"},
		},
		{
			name: "pairs without separator skipped",
			in:   "a=1,junk,b=2",
			want: map[string]any{"a": "1", "b": "2"},
		},
		{
			name: "whitespace trimmed",
			in:   "a = 1 , b = 2",
			want: map[string]any{"a": "1", "b": "2"},
		},
		{
			name: "empty key skipped",
			in:   "=1,b=2",
			want: map[string]any{"b": "2"},
		},
		{
			name: "kwargs wrapper unwrapped",
			in:   map[string]any{"kwargs": map[string]any{"level": 42}},
			want: map[string]any{"level": 42},
		},
		{
			name: "kwargs key among others passes through",
			in:   map[string]any{"kwargs": map[string]any{"x": 1}, "y": 2},
			want: map[string]any{"kwargs": map[string]any{"x": 1}, "y": 2},
		},
		{
			name: "kwargs with non-map value passes through",
			in:   map[string]any{"kwargs": "nope"},
			want: map[string]any{"kwargs": "nope"},
		},
		{
			name: "plain map passes through",
			in:   map[string]any{"level": 42, "on": true},
			want: map[string]any{"level": 42, "on": true},
		},
		{
			name: "nil normalises to empty map",
			in:   nil,
			want: map[string]any{},
		},
		{
			name: "unsupported type normalises to empty map",
			in:   []string{"a=1"},
			want: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeArgs(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
