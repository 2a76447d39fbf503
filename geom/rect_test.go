package geom

import "testing"

func TestNewRectValidation(t *testing.T) {
	tests := []struct {
		name           string
		x0, y0, x1, y1 float64
		wantOK         bool
	}{
		{"valid centered box", 0.1, 0.1, 0.2, 0.2, true},
		{"touches edges", 0, 0, 1, 1, true},
		{"outside unit square negative", -0.1, 0, 0.2, 0.2, false},
		{"outside unit square over one", 0.5, 0.5, 1.1, 0.9, false},
		{"degenerate zero width", 0.2, 0.2, 0.2, 0.3, false},
		{"inverted", 0.5, 0.5, 0.1, 0.1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := NewRect(tt.x0, tt.y0, tt.x1, tt.y1)
			if ok != tt.wantOK {
				t.Errorf("NewRect(%v,%v,%v,%v) ok = %v, want %v", tt.x0, tt.y0, tt.x1, tt.y1, ok, tt.wantOK)
			}
		})
	}
}

func TestRectIoU(t *testing.T) {
	a, _ := NewRect(0, 0, 0.5, 0.5)
	b, _ := NewRect(0, 0, 0.5, 0.5)
	if got := a.IoU(b); got != 1 {
		t.Errorf("identical boxes IoU = %v, want 1", got)
	}

	c, _ := NewRect(0.5, 0.5, 1, 1)
	if got := a.IoU(c); got != 0 {
		t.Errorf("non-overlapping boxes IoU = %v, want 0", got)
	}

	d, _ := NewRect(0.25, 0, 0.75, 0.5)
	got := a.IoU(d)
	if got <= 0 || got >= 1 {
		t.Errorf("partial overlap IoU = %v, want in (0,1)", got)
	}
}

func TestRectCenterAndArea(t *testing.T) {
	r, ok := NewRect(0.2, 0.2, 0.4, 0.6)
	if !ok {
		t.Fatal("expected valid rect")
	}
	if got := r.Area(); got < 0.0799 || got > 0.0801 {
		t.Errorf("Area() = %v, want ~0.08", got)
	}
	c := r.Center()
	if c.X < 0.29 || c.X > 0.31 || c.Y < 0.39 || c.Y > 0.41 {
		t.Errorf("Center() = %v, want ~(0.3, 0.4)", c)
	}
}

func TestTimeMonotonicity(t *testing.T) {
	a := NewTime(1, 30)
	b := NewTime(2, 30)
	if !a.Less(b) {
		t.Error("expected 1/30 < 2/30")
	}
	if b.Less(a) {
		t.Error("expected 2/30 not < 1/30")
	}
	if a.Less(a) {
		t.Error("expected a not < a")
	}
}

func TestTimeSeconds(t *testing.T) {
	tm := NewTime(30000, 1001)
	got := tm.Seconds()
	want := 30000.0 / 1001.0
	if got != want {
		t.Errorf("Seconds() = %v, want %v", got, want)
	}
}
