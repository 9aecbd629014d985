package services

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

var naoDigitos = regexp.MustCompile(`\D`)

// ApenasDigitos strips everything but digits from a document number.
func ApenasDigitos(s string) string {
	return naoDigitos.ReplaceAllString(s, "")
}

// ValidarCPF checks a Brazilian CPF: 11 digits, not all equal, and both
// check digits correct. Accepts formatted (000.000.000-00) or bare input.
func ValidarCPF(cpf string) bool {
	digitos := ApenasDigitos(cpf)
	if len(digitos) != 11 {
		return false
	}
	if todosIguais(digitos) {
		return false
	}
	if digitoVerificador(digitos[:9], 10) != int(digitos[9]-'0') {
		return false
	}
	if digitoVerificador(digitos[:10], 11) != int(digitos[10]-'0') {
		return false
	}
	return true
}

// FormatarCPF renders a bare CPF as 000.000.000-00. Input that is not 11
// digits is returned unchanged.
func FormatarCPF(cpf string) string {
	digitos := ApenasDigitos(cpf)
	if len(digitos) != 11 {
		return cpf
	}
	return fmt.Sprintf("%s.%s.%s-%s", digitos[:3], digitos[3:6], digitos[6:9], digitos[9:])
}

// ValidarCNPJ checks a Brazilian CNPJ: 14 digits, not all equal, and both
// check digits correct.
func ValidarCNPJ(cnpj string) bool {
	digitos := ApenasDigitos(cnpj)
	if len(digitos) != 14 {
		return false
	}
	if todosIguais(digitos) {
		return false
	}
	pesos1 := []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	pesos2 := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	if digitoCNPJ(digitos[:12], pesos1) != int(digitos[12]-'0') {
		return false
	}
	if digitoCNPJ(digitos[:13], pesos2) != int(digitos[13]-'0') {
		return false
	}
	return true
}

// ValidarNumeroCNJ checks a CNJ case number (NNNNNNN-DD.AAAA.J.TR.OOOO):
// 20 digits with the DD pair as a mod 97 base 10 check per resolução 65/2008.
func ValidarNumeroCNJ(numero string) bool {
	digitos := ApenasDigitos(numero)
	if len(digitos) != 20 {
		return false
	}
	sequencial := digitos[:7]
	verificador := digitos[7:9]
	resto := digitos[9:]

	// 98 - (NNNNNNN AAAA J TR OOOO * 100 mod 97), computed over a number
	// too wide for int64.
	concat := sequencial + resto + "00"
	n, ok := new(big.Int).SetString(concat, 10)
	if !ok {
		return false
	}
	mod := new(big.Int).Mod(n, big.NewInt(97)).Int64()
	esperado := 98 - mod
	return fmt.Sprintf("%02d", esperado) == verificador
}

// FormatarNumeroCNJ renders 20 bare digits in the canonical CNJ mask.
func FormatarNumeroCNJ(numero string) string {
	digitos := ApenasDigitos(numero)
	if len(digitos) != 20 {
		return numero
	}
	return fmt.Sprintf("%s-%s.%s.%s.%s.%s",
		digitos[:7], digitos[7:9], digitos[9:13], digitos[13:14], digitos[14:16], digitos[16:])
}

func todosIguais(s string) bool {
	return strings.Count(s, s[:1]) == len(s)
}

func digitoVerificador(parcial string, pesoInicial int) int {
	soma := 0
	for i, c := range parcial {
		soma += int(c-'0') * (pesoInicial - i)
	}
	resto := soma % 11
	if resto < 2 {
		return 0
	}
	return 11 - resto
}

func digitoCNPJ(parcial string, pesos []int) int {
	soma := 0
	for i, c := range parcial {
		soma += int(c-'0') * pesos[i]
	}
	resto := soma % 11
	if resto < 2 {
		return 0
	}
	return 11 - resto
}
