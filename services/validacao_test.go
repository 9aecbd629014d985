package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidarCPF(t *testing.T) {
	tests := []struct {
		name  string
		cpf   string
		valid bool
	}{
		{"valid bare", "52998224725", true},
		{"valid formatted", "529.982.247-25", true},
		{"wrong first check digit", "52998224735", false},
		{"wrong second check digit", "52998224726", false},
		{"all same digits", "11111111111", false},
		{"too short", "5299822472", false},
		{"too long", "529982247250", false},
		{"empty", "", false},
		{"letters only", "abcdefghijk", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidarCPF(tt.cpf))
		})
	}
}

func TestFormatarCPF(t *testing.T) {
	assert.Equal(t, "529.982.247-25", FormatarCPF("52998224725"))
	assert.Equal(t, "529.982.247-25", FormatarCPF("529.982.247-25"))
	// Invalid length passes through untouched.
	assert.Equal(t, "123", FormatarCPF("123"))
}

func TestValidarCNPJ(t *testing.T) {
	tests := []struct {
		name  string
		cnpj  string
		valid bool
	}{
		{"valid bare", "11222333000181", true},
		{"valid formatted", "11.222.333/0001-81", true},
		{"wrong check digit", "11222333000182", false},
		{"all same digits", "11111111111111", false},
		{"too short", "1122233300018", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidarCNPJ(tt.cnpj))
		})
	}
}

func TestValidarNumeroCNJ(t *testing.T) {
	// 0000001-40.2020.4.03.6183 is well formed: the pair 40 satisfies
	// 98 - (00000012020403618300 mod 97).
	assert.True(t, ValidarNumeroCNJ("0000001-40.2020.4.03.6183"))
	assert.True(t, ValidarNumeroCNJ("00000014020204036183"))

	assert.False(t, ValidarNumeroCNJ("0000001-41.2020.4.03.6183"))
	assert.False(t, ValidarNumeroCNJ("123"))
	assert.False(t, ValidarNumeroCNJ(""))
}

func TestFormatarNumeroCNJ(t *testing.T) {
	assert.Equal(t, "0000001-40.2020.4.03.6183", FormatarNumeroCNJ("00000014020204036183"))
	assert.Equal(t, "123", FormatarNumeroCNJ("123"))
}
