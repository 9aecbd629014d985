package services

import (
	"sort"
	"time"
)

// Requisitos previdenciários vigentes (EC 103/2019 + regras de transição).
const (
	IdadeMinimaHomem        = 65
	IdadeMinimaMulher       = 62
	TempoContribuicaoHomem  = 35
	TempoContribuicaoMulher = 30
	CarenciaMinimaMeses     = 180

	// Regra de pontos (referência 2024)
	PontosHomem  = 100
	PontosMulher = 90
)

// Vinculo is one employment period used in contribution-time math.
type Vinculo struct {
	Empregador string     `json:"empregador"`
	DataInicio time.Time  `json:"data_inicio"`
	DataFim    *time.Time `json:"data_fim,omitempty"`
}

// Contribuicao is one monthly contribution, in centavos.
type Contribuicao struct {
	Competencia   string `json:"competencia"`
	ValorCentavos int64  `json:"valor_centavos"`
}

// TempoContribuicao breaks total contribution time into calendar parts.
type TempoContribuicao struct {
	Anos       int `json:"anos"`
	Meses      int `json:"meses"`
	Dias       int `json:"dias"`
	TotalDias  int `json:"total_dias"`
	TotalMeses int `json:"total_meses"`
}

// CalcularIdade returns full years between birth and reference dates.
func CalcularIdade(dataNascimento, dataReferencia time.Time) int {
	idade := dataReferencia.Year() - dataNascimento.Year()
	if dataReferencia.Month() < dataNascimento.Month() ||
		(dataReferencia.Month() == dataNascimento.Month() && dataReferencia.Day() < dataNascimento.Day()) {
		idade--
	}
	return idade
}

// CalcularTempoContribuicao sums employment periods. Open periods count
// until agora. Negative spans (bad data) count as zero.
func CalcularTempoContribuicao(vinculos []Vinculo, agora time.Time) TempoContribuicao {
	totalDias := 0
	for _, v := range vinculos {
		fim := agora
		if v.DataFim != nil {
			fim = *v.DataFim
		}
		dias := int(fim.Sub(v.DataInicio).Hours() / 24)
		if dias > 0 {
			totalDias += dias
		}
	}

	anos := totalDias / 365
	resto := totalDias % 365
	return TempoContribuicao{
		Anos:       anos,
		Meses:      resto / 30,
		Dias:       resto % 30,
		TotalDias:  totalDias,
		TotalMeses: totalDias / 30,
	}
}

// CalcularMediaSalarial averages the top slice of contributions, highest
// first. percentual 0.8 reproduces the pre-EC 103 "80% maiores" rule; 1.0
// the current all-salaries rule. Result in centavos, truncated.
func CalcularMediaSalarial(contribuicoes []Contribuicao, percentual float64) int64 {
	if len(contribuicoes) == 0 {
		return 0
	}
	if percentual <= 0 || percentual > 1 {
		percentual = 1
	}

	valores := make([]int64, len(contribuicoes))
	for i, c := range contribuicoes {
		valores[i] = c.ValorCentavos
	}
	sort.Slice(valores, func(i, j int) bool { return valores[i] > valores[j] })

	quantidade := int(float64(len(valores)) * percentual)
	if quantidade < 1 {
		quantidade = 1
	}
	maiores := valores[:quantidade]

	var soma int64
	for _, v := range maiores {
		soma += v
	}
	return soma / int64(len(maiores))
}

// CoeficienteRMI returns the EC 103/2019 benefit coefficient: 60% plus 2%
// per contribution year beyond 20 (men) or 15 (women), capped at 100%.
func CoeficienteRMI(anosContribuicao int, sexo string) float64 {
	anosBase := 20
	if sexo == "F" {
		anosBase = 15
	}
	excedentes := anosContribuicao - anosBase
	if excedentes < 0 {
		excedentes = 0
	}
	coeficiente := 0.6 + 0.02*float64(excedentes)
	if coeficiente > 1.0 {
		coeficiente = 1.0
	}
	return coeficiente
}

// CalcularRMI estimates the initial benefit value in centavos under the
// current rule: full-history average times the coefficient.
func CalcularRMI(contribuicoes []Contribuicao, anosContribuicao int, sexo string) int64 {
	media := CalcularMediaSalarial(contribuicoes, 1.0)
	coeficiente := CoeficienteRMI(anosContribuicao, sexo)
	return int64(float64(media) * coeficiente)
}

// RegraAposentadoria is the assessment of one retirement rule.
type RegraAposentadoria struct {
	Nome         string    `json:"nome"`
	Apto         bool      `json:"apto"`
	DataPossivel time.Time `json:"data_possivel"`
	Detalhes     string    `json:"detalhes,omitempty"`
}

// SimulacaoAposentadoria is the outcome of simulating every applicable rule
// for a client.
type SimulacaoAposentadoria struct {
	IdadeAtual            int                 `json:"idade_atual"`
	TempoContribuicao     TempoContribuicao   `json:"tempo_contribuicao"`
	Regras                []RegraAposentadoria `json:"regras"`
	MediaSalarialCentavos int64               `json:"media_salarial_centavos,omitempty"`
	Coeficiente           float64             `json:"coeficiente,omitempty"`
	RMIEstimadaCentavos   int64               `json:"rmi_estimada_centavos,omitempty"`
}

// SimularAposentadoria checks the client against the age rule, the
// transition time rule and the points rule, and estimates the benefit value
// when contributions are known.
func SimularAposentadoria(dataNascimento time.Time, sexo string, vinculos []Vinculo, contribuicoes []Contribuicao, agora time.Time) *SimulacaoAposentadoria {
	idade := CalcularIdade(dataNascimento, agora)
	tempo := CalcularTempoContribuicao(vinculos, agora)

	idadeMinima := IdadeMinimaHomem
	tempoMinimo := TempoContribuicaoHomem
	pontosNecessarios := PontosHomem
	idadeMinTransicao := 60
	if sexo == "F" {
		idadeMinima = IdadeMinimaMulher
		tempoMinimo = TempoContribuicaoMulher
		pontosNecessarios = PontosMulher
		idadeMinTransicao = 57
	}

	simulacao := &SimulacaoAposentadoria{
		IdadeAtual:        idade,
		TempoContribuicao: tempo,
	}

	// Aposentadoria por idade
	aptoIdade := idade >= idadeMinima && tempo.TotalMeses >= CarenciaMinimaMeses
	dataIdade := agora
	if !aptoIdade {
		anosFaltantes := idadeMinima - idade
		if anosFaltantes < 0 {
			anosFaltantes = 0
		}
		dataIdade = agora.AddDate(anosFaltantes, 0, 0)
	}
	simulacao.Regras = append(simulacao.Regras, RegraAposentadoria{
		Nome:         "Aposentadoria por Idade",
		Apto:         aptoIdade,
		DataPossivel: dataIdade,
	})

	// Aposentadoria por tempo de contribuição (regra de transição)
	aptoTempo := tempo.Anos >= tempoMinimo && idade >= idadeMinTransicao
	dataTempo := agora
	if !aptoTempo {
		faltaTempo := tempoMinimo - tempo.Anos
		faltaIdade := idadeMinTransicao - idade
		anosFaltantes := faltaTempo
		if faltaIdade > anosFaltantes {
			anosFaltantes = faltaIdade
		}
		if anosFaltantes < 0 {
			anosFaltantes = 0
		}
		dataTempo = agora.AddDate(anosFaltantes, 0, 0)
	}
	simulacao.Regras = append(simulacao.Regras, RegraAposentadoria{
		Nome:         "Aposentadoria por Tempo de Contribuição",
		Apto:         aptoTempo,
		DataPossivel: dataTempo,
	})

	// Regra de pontos: idade + tempo, ganhando 2 pontos por ano corrido.
	pontos := idade + tempo.Anos
	aptoPontos := pontos >= pontosNecessarios && tempo.Anos >= tempoMinimo
	dataPontos := agora
	if !aptoPontos {
		faltantes := pontosNecessarios - pontos
		anosFaltantes := (faltantes + 1) / 2
		if anosFaltantes < 0 {
			anosFaltantes = 0
		}
		dataPontos = agora.AddDate(anosFaltantes, 0, 0)
	}
	simulacao.Regras = append(simulacao.Regras, RegraAposentadoria{
		Nome:         "Regra de Pontos",
		Apto:         aptoPontos,
		DataPossivel: dataPontos,
	})

	if len(contribuicoes) > 0 {
		simulacao.MediaSalarialCentavos = CalcularMediaSalarial(contribuicoes, 1.0)
		simulacao.Coeficiente = CoeficienteRMI(tempo.Anos, sexo)
		simulacao.RMIEstimadaCentavos = int64(float64(simulacao.MediaSalarialCentavos) * simulacao.Coeficiente)
	}
	return simulacao
}
