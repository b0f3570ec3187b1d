package script

import (
	"context"
	"errors"
	"testing"
)

func TestDetector_Detect(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		language string
	}{
		{"english", "Good morning, this is XYZ Bank.", "en"},
		{"hindi", "मेरा कार्ड खो गया है", "hi"},
		{"malayalam", "എന്റെ കാർഡ് നഷ്ടപ്പെട്ടു", "ml"},
		{"chinese", "我的卡丢了", "zh"},
		{"japanese with kanji", "カードを無くしました", "ja"},
		{"arabic", "فقدت بطاقتي", "ar"},
		{"mixed mostly latin", "Sir, mera card ₹25,000 kho gaya", "en"},
	}

	d := New("en")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Detect(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Language != tt.language {
				t.Errorf("expected %s, got %s", tt.language, got.Language)
			}
			if got.Confidence <= 0 || got.Confidence > 1 {
				t.Errorf("expected confidence in (0,1], got %v", got.Confidence)
			}
		})
	}
}

func TestDetector_Detect_Confidence(t *testing.T) {
	d := New("en")

	got, err := d.Detect(context.Background(), "ab मे")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Language != "en" {
		t.Errorf("expected majority language en, got %s", got.Language)
	}
	if got.Confidence < 0.66 || got.Confidence > 0.67 {
		t.Errorf("expected confidence 2/3, got %v", got.Confidence)
	}
}

func TestDetector_Detect_NoLetters(t *testing.T) {
	d := New("")

	_, err := d.Detect(context.Background(), "12345 ... !!!")
	if !errors.Is(err, ErrNoLetters) {
		t.Errorf("expected ErrNoLetters, got %v", err)
	}
}

func TestDetector_LatinLanguage(t *testing.T) {
	d := New("es")

	got, _ := d.Detect(context.Background(), "Hola, perdí mi tarjeta")
	if got.Language != "es" {
		t.Errorf("expected configured latin language 'es', got %s", got.Language)
	}
}

func TestDetector_Dominant(t *testing.T) {
	d := New("en")

	lang, err := d.Dominant(context.Background(), []string{
		"Good morning, how may I help you today?",
		"मेरा कार्ड",
		"Sure, I can block it.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lang != "en" {
		t.Errorf("expected en, got %s", lang)
	}

	if _, err := d.Dominant(context.Background(), []string{"", "42"}); !errors.Is(err, ErrNoLetters) {
		t.Errorf("expected ErrNoLetters, got %v", err)
	}
}
