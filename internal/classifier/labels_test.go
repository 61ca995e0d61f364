package classifier

import "testing"

func TestLabelsFixedOrder(t *testing.T) {
	labels := Labels()
	if len(labels) != NumClasses {
		t.Fatalf("expected %d labels, got %d", NumClasses, len(labels))
	}
	if labels[0] != "Apple___Apple_scab" || labels[NumClasses-1] != "Tomato___healthy" {
		t.Fatalf("unexpected boundary labels: %s, %s", labels[0], labels[NumClasses-1])
	}

	seen := make(map[string]bool, NumClasses)
	for _, l := range labels {
		if seen[l] {
			t.Fatalf("duplicate label %s", l)
		}
		seen[l] = true
	}

	labels[0] = "mutated"
	if got, _ := Label(0); got != "Apple___Apple_scab" {
		t.Fatalf("Labels must return a copy, index 0 is now %s", got)
	}
}

func TestLabelBounds(t *testing.T) {
	if _, ok := Label(-1); ok {
		t.Fatal("expected index -1 to be rejected")
	}
	if _, ok := Label(NumClasses); ok {
		t.Fatal("expected index NumClasses to be rejected")
	}
	if got, ok := Label(20); !ok || got != "Potato___Early_blight" {
		t.Fatalf("unexpected label at 20: %s", got)
	}
	if !IsLabel("Grape___healthy") || IsLabel("Grape") {
		t.Fatal("IsLabel misclassified")
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"Tomato___Early_blight":                         "Tomato - Early blight",
		"Corn_(maize)___Common_rust_":                   "Corn (maize) - Common rust",
		"Pepper,_bell___healthy":                        "Pepper, bell - healthy",
		"Tomato___Spider_mites Two-spotted_spider_mite": "Tomato - Spider mites Two-spotted spider mite",
	}
	for label, want := range tests {
		if got := DisplayName(label); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", label, got, want)
		}
	}
}
