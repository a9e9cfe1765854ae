package hal

import "errors"

// FakeLine records the values written to it.
type FakeLine struct {
	Values []int
	// Err, if set, is returned by SetValue and nothing is recorded.
	Err error
}

func (f *FakeLine) SetValue(value int) error {
	if f.Err != nil {
		return f.Err
	}
	f.Values = append(f.Values, value)
	return nil
}

// Value returns the last written value, 0 before any write.
func (f *FakeLine) Value() int {
	if len(f.Values) == 0 {
		return 0
	}
	return f.Values[len(f.Values)-1]
}

// FakeADC returns scripted samples, repeating the last one.
type FakeADC struct {
	Samples []int
	Err     error
	index   int
}

func (f *FakeADC) Read() (int, error) {
	if f.Err != nil {
		return 0, f.Err
	}
	if len(f.Samples) == 0 {
		return 0, errors.New("no samples configured")
	}
	v := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return v, nil
}
