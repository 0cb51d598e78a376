package lyric

import "testing"

func TestParseQQ_BasicLine(t *testing.T) {
	raw := "[00:12.34]Hello there"

	lines := ParseQQ(raw)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}
	if lines[0].StartTimeMs != 12340 {
		t.Errorf("Expected 12340ms, got %v", lines[0].StartTimeMs)
	}
	if lines[0].Text != "Hello there" {
		t.Errorf("Expected 'Hello there', got %q", lines[0].Text)
	}
	if lines[0].Translation != "" {
		t.Errorf("Expected no translation, got %q", lines[0].Translation)
	}
}

func TestParseQQ_TranslationSuffix(t *testing.T) {
	raw := "[00:05.00]Hello【你好】"

	lines := ParseQQ(raw)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}
	if lines[0].Text != "Hello" {
		t.Errorf("Expected 'Hello', got %q", lines[0].Text)
	}
	if lines[0].Translation != "你好" {
		t.Errorf("Expected translation '你好', got %q", lines[0].Translation)
	}
}

func TestParseQQ_MultiTagSharesTranslation(t *testing.T) {
	raw := "[00:05.00][00:45.00]Chorus【副歌】"

	lines := ParseQQ(raw)
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if line.Text != "Chorus" {
			t.Errorf("Expected 'Chorus', got %q", line.Text)
		}
		if line.Translation != "副歌" {
			t.Errorf("Expected translation on every expanded line, got %q", line.Translation)
		}
	}
	if lines[0].StartTimeMs != 5000 || lines[1].StartTimeMs != 45000 {
		t.Errorf("Unexpected times: %v, %v", lines[0].StartTimeMs, lines[1].StartTimeMs)
	}
}

func TestParseQQ_EmptyTranslationIgnored(t *testing.T) {
	raw := "[00:05.00]Instrumental【】"

	lines := ParseQQ(raw)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}
	if lines[0].Translation != "" {
		t.Errorf("Expected empty translation to stay empty, got %q", lines[0].Translation)
	}
}

func TestParseQQ_SignedTag(t *testing.T) {
	raw := "[-0:05.00]Lead-in"

	lines := ParseQQ(raw)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}
	if lines[0].StartTimeMs != 5000 {
		// "-0" parses to zero minutes; only the seconds segment contributes
		t.Errorf("Expected 5000ms, got %v", lines[0].StartTimeMs)
	}
}

func TestParseQQ_UntaggedLinesDropped(t *testing.T) {
	raw := "some header noise\n[00:01.00]Real line"

	lines := ParseQQ(raw)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}
	if lines[0].Text != "Real line" {
		t.Errorf("Expected 'Real line', got %q", lines[0].Text)
	}
}

func TestParseQQ_Sorted(t *testing.T) {
	raw := "[00:30.00]Second\n[00:10.00]First"

	lines := ParseQQ(raw)
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if lines[0].Text != "First" || lines[1].Text != "Second" {
		t.Errorf("Expected sorted order, got %q then %q", lines[0].Text, lines[1].Text)
	}
}
