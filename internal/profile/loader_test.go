package profile

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
id: p-1
account_id: acct-1
name: conservative
base_trade:
  risk_cents: 1000
loss_recovery:
  sequence:
    - kind: percent_of_base
      percent: 50
    - kind: same_as_previous
  stop_after_sequence: true
gain_mode:
  mode: compounding
  reinvestment_percent: 30
  stop_on_first_loss: true
daily_loss_cents: 5000
weekly_loss_cents: 15000
monthly_loss_cents: 40000
`

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidProfile(t *testing.T) {
	p, err := Load(writeProfile(t, validYAML))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if p.Name != "conservative" {
		t.Errorf("expected name conservative, got %s", p.Name)
	}
	if p.BaseTrade.RiskCents != 1000 {
		t.Errorf("expected base risk 1000, got %d", p.BaseTrade.RiskCents)
	}
	if len(p.LossRecovery.Sequence) != 2 || !p.LossRecovery.StopAfterSequence {
		t.Errorf("ladder parse mismatch: %+v", p.LossRecovery)
	}
	if p.WeeklyLossCents == nil || *p.WeeklyLossCents != 15000 {
		t.Errorf("expected weekly limit 15000, got %v", p.WeeklyLossCents)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	// 오타 난 필드는 조용히 무시되지 않고 즉시 실패해야 함
	if _, err := Load(writeProfile(t, validYAML+"max_drawdwon: 100\n")); err == nil {
		t.Error("expected unknown-field error")
	}
}

func TestLoadRejectsInvalidProfile(t *testing.T) {
	broken := `
name: broken
base_trade:
  risk_cents: 0
gain_mode:
  mode: fixed
daily_loss_cents: 5000
monthly_loss_cents: 40000
`
	if _, err := Load(writeProfile(t, broken)); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestHashStableAcrossTimestamps(t *testing.T) {
	a, err := Load(writeProfile(t, validYAML))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Load(writeProfile(t, validYAML))
	if err != nil {
		t.Fatal(err)
	}

	hashA, err := Hash(a)
	if err != nil {
		t.Fatal(err)
	}
	hashB, err := Hash(b)
	if err != nil {
		t.Fatal(err)
	}
	if hashA != hashB {
		t.Error("identical rule content must hash identically")
	}

	// 타임스탬프는 해시에 영향 없음 (캐시 키 안정성)
	b.UpdatedAt = b.UpdatedAt.AddDate(0, 0, 1)
	hashC, err := Hash(b)
	if err != nil {
		t.Fatal(err)
	}
	if hashA != hashC {
		t.Error("timestamps must not affect the hash")
	}
}

// 저장된 프로필(ID/계정/이름 있음)과 같은 규칙의 인라인 프로필은
// 같은 캐시 키를 받아야 warm 캐시가 히트한다
func TestHashIgnoresIdentityFields(t *testing.T) {
	a, err := Load(writeProfile(t, validYAML))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Load(writeProfile(t, validYAML))
	if err != nil {
		t.Fatal(err)
	}
	b.ID = "prof-123"
	b.AccountID = "main"
	b.Name = "renamed copy"

	hashA, err := Hash(a)
	if err != nil {
		t.Fatal(err)
	}
	hashB, err := Hash(b)
	if err != nil {
		t.Fatal(err)
	}
	if hashA != hashB {
		t.Error("identity fields must not affect the hash")
	}
}

func TestHashChangesWithRules(t *testing.T) {
	a, err := Load(writeProfile(t, validYAML))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Load(writeProfile(t, validYAML))
	if err != nil {
		t.Fatal(err)
	}
	b.BaseTrade.RiskCents = 2000

	hashA, _ := Hash(a)
	hashB, _ := Hash(b)
	if hashA == hashB {
		t.Error("different rule content must hash differently")
	}
}
