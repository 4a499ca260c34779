package profile

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML profile file and validates it
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}

	if err := Validate(&p); err != nil {
		return nil, err
	}

	return &p, nil
}

// Hash generates a SHA256 hash of the profile (canonical JSON)
// 주의: map 대신 struct 사용으로 해시 재현성 보장
// 식별자/이름/타임스탬프는 해시에서 제외 — 규칙 내용이 같으면
// 저장된 프로필이든 인라인 프로필이든 캐시 키가 같아야 함
func Hash(p *Profile) (string, error) {
	c := *p
	c.ID = ""
	c.AccountID = ""
	c.Name = ""
	c.CreatedAt = time.Time{}
	c.UpdatedAt = time.Time{}

	jsonBytes, err := json.Marshal(&c)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
