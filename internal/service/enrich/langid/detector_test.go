package langid

import (
	"context"
	"errors"
	"testing"

	"convi-text-pipeline/internal/service/enrich/script"
)

func TestDetector_Detect(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		language string
	}{
		{"english", "Good morning, thank you for calling the bank. How can I help you with your card today?", "en"},
		{"french", "Bonjour, je voudrais bloquer ma carte bancaire parce que je l'ai perdue hier soir dans le métro.", "fr"},
		{"spanish", "Hola, quiero bloquear mi tarjeta porque la perdí ayer por la noche en el autobús de la ciudad.", "es"},
		{"german", "Guten Tag, ich möchte meine Karte sperren lassen, weil ich sie gestern Abend in der Stadt verloren habe.", "de"},
		{"hindi", "मेरा कार्ड खो गया है, कृपया इसे तुरंत बंद कर दीजिए", "hi"},
		{"chinese", "我的银行卡昨天丢了，请帮我冻结。", "zh"},
	}

	d := New("en", nil)
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

func TestDetector_FallsBackToScript(t *testing.T) {
	d := New("en", nil)

	// no profile for Malayalam
	got, err := d.Detect(context.Background(), "എന്റെ കാർഡ് നഷ്ടപ്പെട്ടു")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Language != "ml" {
		t.Errorf("expected ml, got %s", got.Language)
	}

	if _, err := d.Detect(context.Background(), "₹500 12:30 ..."); !errors.Is(err, script.ErrNoLetters) {
		t.Errorf("expected ErrNoLetters, got %v", err)
	}
}

func TestDetector_CandidatesRestrictChoice(t *testing.T) {
	d := New("en", []string{"EN", " es ", "xx"})

	got, err := d.Detect(context.Background(), "Bonjour, je voudrais bloquer ma carte bancaire parce que je l'ai perdue hier soir dans le métro.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Language == "fr" {
		t.Error("expected fr to be excluded from candidates")
	}
	if len(d.langs) != 2 {
		t.Errorf("expected 2 candidate languages, got %d", len(d.langs))
	}
}

func TestDetector_Dominant(t *testing.T) {
	d := New("en", nil)

	got, err := d.Dominant(context.Background(), []string{
		"Hola, buenos días, le habla el banco.",
		"Sí, perdí mi tarjeta ayer por la tarde.",
		"Vamos a bloquear la tarjeta ahora mismo y le enviaremos una nueva.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "es" {
		t.Errorf("expected es, got %s", got)
	}

	if _, err := d.Dominant(context.Background(), []string{"", "123"}); err == nil {
		t.Error("expected error when no text has letters")
	}
}

func TestLanguages(t *testing.T) {
	langs := Languages()
	if len(langs) != len(codes) {
		t.Fatalf("expected %d languages, got %d", len(codes), len(langs))
	}
	for i := 1; i < len(langs); i++ {
		if langs[i-1] >= langs[i] {
			t.Errorf("expected sorted languages, got %v", langs)
			break
		}
	}
}
