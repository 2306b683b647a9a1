package creative

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyQuality(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
		want   Quality
	}{
		{"hd landscape", 1280, 720, QualityHD},
		{"hd portrait", 720, 1280, QualityHD},
		{"above hd", 1920, 1080, QualityHD},
		{"sd landscape", 640, 480, QualitySD},
		{"sd portrait", 480, 640, QualitySD},
		{"low", 100, 100, QualityLow},
		{"just under sd", 639, 480, QualityLow},
		{"no dims", 0, 0, QualityUnknown},
		{"half dims", 800, 0, QualityUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyQuality(tt.width, tt.height))
		})
	}
}

func TestRecord_Classify(t *testing.T) {
	rec := &Record{MediaURL: "https://cdn.example.com/a.jpg", Texts: Texts{Title: "Summer Sale"}}
	rec.Classify()
	assert.Equal(t, FetchSuccess, rec.Status)

	rec = &Record{MediaURL: "https://cdn.example.com/a.jpg"}
	rec.Classify()
	assert.Equal(t, FetchPartial, rec.Status)

	rec = &Record{Texts: Texts{Body: "body only"}}
	rec.Classify()
	assert.Equal(t, FetchPartial, rec.Status)

	rec = &Record{}
	rec.Classify()
	assert.Equal(t, FetchFailed, rec.Status)
}
