package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ClienteExtraido holds the fields read from an identity document (RG, CNH
// or CPF card). Missing fields stay nil.
type ClienteExtraido struct {
	Nome           *string `json:"nome"`
	CPF            *string `json:"cpf"`
	RG             *string `json:"rg"`
	RGOrgaoEmissor *string `json:"rg_orgao_emissor"`
	DataNascimento *string `json:"data_nascimento"`
	Sexo           *string `json:"sexo"`
	NomeMae        *string `json:"nome_mae"`
	NomePai        *string `json:"nome_pai"`
	Naturalidade   *string `json:"naturalidade"`

	Confidence     float64  `json:"confidence"`
	FieldsToReview []string `json:"fields_to_review"`
}

const promptIdentidade = `Analise este documento de identificação brasileiro (RG, CNH ou CPF) e extraia os dados em formato JSON.

Extraia APENAS os campos que conseguir identificar claramente no documento:
- nome: Nome completo
- cpf: CPF no formato XXX.XXX.XXX-XX
- rg: Número do RG
- rg_orgao_emissor: Órgão emissor do RG (SSP, DETRAN, etc)
- data_nascimento: Data de nascimento (formato YYYY-MM-DD)
- sexo: M ou F
- nome_mae: Nome da mãe
- nome_pai: Nome do pai
- naturalidade: Cidade/Estado de nascimento

Responda APENAS com o JSON, sem explicações. Use null para campos não encontrados.
Adicione um campo "confidence" de 0 a 1 indicando a confiança geral da extração.
Adicione um campo "fields_to_review" listando campos que podem precisar de revisão manual.`

// ExtractIdentityDocument reads personal data from an identity document.
func (c *Client) ExtractIdentityDocument(ctx context.Context, arquivo *Arquivo) (*ClienteExtraido, error) {
	resposta, err := c.generateJSON(ctx, promptIdentidade, arquivo)
	if err != nil {
		return nil, err
	}
	var extraido ClienteExtraido
	if err := ParseJSONResposta(resposta, &extraido); err != nil {
		return nil, err
	}
	c.log.Info("documento de identidade extraído",
		zap.Float64("confidence", extraido.Confidence))
	return &extraido, nil
}

// VinculoCNIS is one employment record inside a CNIS statement.
type VinculoCNIS struct {
	Empregador        string  `json:"empregador"`
	CNPJ              *string `json:"cnpj"`
	DataInicio        *string `json:"data_inicio"`
	DataFim           *string `json:"data_fim"`
	Tipo              *string `json:"tipo"`
	UltimaRemuneracao *float64 `json:"ultima_remuneracao"`
}

// ContribuicaoCNIS is one contribution record inside a CNIS statement.
type ContribuicaoCNIS struct {
	Competencia string   `json:"competencia"`
	Valor       *float64 `json:"valor"`
	Tipo        *string  `json:"tipo"`
}

// DadosCNIS holds the structured contents of a CNIS statement.
type DadosCNIS struct {
	NIT            *string `json:"nit"`
	Nome           *string `json:"nome"`
	DataNascimento *string `json:"data_nascimento"`
	NomeMae        *string `json:"nome_mae"`

	Vinculos      []VinculoCNIS      `json:"vinculos"`
	Contribuicoes []ContribuicaoCNIS `json:"contribuicoes"`

	TempoContribuicaoTotalDias *int     `json:"tempo_contribuicao_total_dias"`
	IndicadoresEspeciais       []string `json:"indicadores_especiais"`
}

const promptCNIS = `Analise este CNIS (Cadastro Nacional de Informações Sociais) e extraia os dados em formato JSON.

Extraia:
- nit: Número de Identificação do Trabalhador
- nome: Nome do segurado
- data_nascimento: Data de nascimento (YYYY-MM-DD)
- nome_mae: Nome da mãe

- vinculos: Lista de vínculos empregatícios, cada um com:
  - empregador: Nome do empregador
  - cnpj: CNPJ do empregador (se disponível)
  - data_inicio: Data de início (YYYY-MM-DD)
  - data_fim: Data de fim (YYYY-MM-DD), null se ativo
  - tipo: CLT, contribuinte_individual, etc
  - ultima_remuneracao: Último salário registrado

- contribuicoes: Lista de contribuições, cada uma com:
  - competencia: Mês/Ano (YYYY-MM)
  - valor: Valor da contribuição
  - tipo: Tipo de contribuição

- tempo_contribuicao_total_dias: Total de dias de contribuição calculado
- indicadores_especiais: Lista de períodos com atividade especial, se houver

Responda APENAS com o JSON válido.`

// ExtractCNIS reads the employment and contribution history from a CNIS
// statement.
func (c *Client) ExtractCNIS(ctx context.Context, arquivo *Arquivo) (*DadosCNIS, error) {
	resposta, err := c.generateJSON(ctx, promptCNIS, arquivo)
	if err != nil {
		return nil, err
	}
	var dados DadosCNIS
	if err := ParseJSONResposta(resposta, &dados); err != nil {
		return nil, err
	}
	c.log.Info("CNIS extraído", zap.Int("vinculos", len(dados.Vinculos)))
	return &dados, nil
}

// AgenteNocivo is one harmful-agent exposure record inside a PPP.
type AgenteNocivo struct {
	Agente           string  `json:"agente"`
	Codigo           *string `json:"codigo"`
	Intensidade      *string `json:"intensidade"`
	TecnicaUtilizada *string `json:"tecnica_utilizada"`
	PeriodoInicio    *string `json:"periodo_inicio"`
	PeriodoFim       *string `json:"periodo_fim"`
	EPIEficaz        *bool   `json:"epi_eficaz"`
}

// AnalisePPP holds the structured analysis of a PPP form, used to argue for
// aposentadoria especial.
type AnalisePPP struct {
	DadosEmpresa         map[string]interface{} `json:"dados_empresa"`
	DadosTrabalhador     map[string]interface{} `json:"dados_trabalhador"`
	Cargo                *string                `json:"cargo"`
	Setor                *string                `json:"setor"`
	DescricaoAtividades  *string                `json:"descricao_atividades"`
	ExposicaoAgentes     []AgenteNocivo         `json:"exposicao_agentes_nocivos"`
	ConclusaoEspecial    *string                `json:"conclusao_especial"`
	FundamentoLegal      *string                `json:"fundamento_legal"`
}

const promptPPP = `Analise este PPP (Perfil Profissiográfico Previdenciário) e extraia os dados em formato JSON.

Foque especialmente em:
- dados_empresa: Nome, CNPJ, CNAE
- dados_trabalhador: Nome, CPF, data_nascimento, data_admissao
- cargo: Cargo/função exercida
- setor: Setor de trabalho
- descricao_atividades: Descrição das atividades

- exposicao_agentes_nocivos: Lista de agentes nocivos, cada um com:
  - agente: Nome do agente (ruído, calor, agentes químicos, etc)
  - codigo: Código do agente nocivo
  - intensidade: Intensidade/concentração
  - tecnica_utilizada: Metodologia de medição
  - periodo_inicio: Data início exposição
  - periodo_fim: Data fim exposição
  - epi_eficaz: Se EPI elimina/neutraliza (true/false)

- conclusao_especial: Análise se o período pode ser considerado especial para aposentadoria
- fundamento_legal: Base legal aplicável (Decreto 3048, etc)

Responda APENAS com o JSON válido.`

// AnalyzePPP reads harmful-agent exposure data from a PPP form.
func (c *Client) AnalyzePPP(ctx context.Context, arquivo *Arquivo) (*AnalisePPP, error) {
	resposta, err := c.generateJSON(ctx, promptPPP, arquivo)
	if err != nil {
		return nil, err
	}
	var analise AnalisePPP
	if err := ParseJSONResposta(resposta, &analise); err != nil {
		return nil, err
	}
	c.log.Info("PPP analisado", zap.Int("agentes_nocivos", len(analise.ExposicaoAgentes)))
	return &analise, nil
}

// DecisaoSentenca is the dispositive part of a ruling.
type DecisaoSentenca struct {
	Resultado          *string  `json:"resultado"`
	BeneficioConcedido *string  `json:"beneficio_concedido"`
	DIB                *string  `json:"dib"`
	RMI                *float64 `json:"rmi"`
	Atrasados          *bool    `json:"atrasados"`
}

// AnaliseSentenca holds the structured contents of a judicial ruling.
type AnaliseSentenca struct {
	NumeroProcesso *string                `json:"numero_processo"`
	Vara           *string                `json:"vara"`
	Juiz           *string                `json:"juiz"`
	DataSentenca   *string                `json:"data_sentenca"`
	TipoAcao       *string                `json:"tipo_acao"`
	Partes         map[string]interface{} `json:"partes"`
	Pedidos        []string               `json:"pedidos"`
	Decisao        DecisaoSentenca        `json:"decisao"`
	Fundamentos    []string               `json:"fundamentos"`
	Honorarios     map[string]interface{} `json:"honorarios"`
	Recursos       map[string]interface{} `json:"recursos"`
	Observacoes    *string                `json:"observacoes"`
}

const promptSentenca = `Analise esta sentença judicial e extraia os dados em formato JSON.

Extraia:
- numero_processo: Número do processo
- vara: Vara/Juízo
- juiz: Nome do juiz
- data_sentenca: Data da sentença (YYYY-MM-DD)
- tipo_acao: Tipo de ação (concessão, revisão, etc)

- partes:
  - autor: Nome do autor
  - reu: Nome do réu (geralmente INSS)

- pedidos: Lista de pedidos feitos
- decisao:
  - resultado: PROCEDENTE, IMPROCEDENTE, PARCIALMENTE_PROCEDENTE
  - beneficio_concedido: Tipo de benefício (se procedente)
  - dib: Data de início do benefício (YYYY-MM-DD)
  - rmi: Valor do benefício (se mencionado)
  - atrasados: Se há condenação em atrasados

- fundamentos: Principais fundamentos da decisão
- honorarios:
  - tipo: SUCUMBENCIA ou outro
  - percentual: Percentual de honorários

- recursos:
  - prazo_recurso: Prazo para recurso em dias
  - data_limite_recurso: Data limite (YYYY-MM-DD)

- observacoes: Outras informações relevantes

Responda APENAS com JSON válido.`

// AnalyzeSentenca reads the dispositive, grounds and appeal deadlines from
// a ruling.
func (c *Client) AnalyzeSentenca(ctx context.Context, arquivo *Arquivo) (*AnaliseSentenca, error) {
	resposta, err := c.generateJSON(ctx, promptSentenca, arquivo)
	if err != nil {
		return nil, err
	}
	var analise AnaliseSentenca
	if err := ParseJSONResposta(resposta, &analise); err != nil {
		return nil, err
	}
	return &analise, nil
}

const promptResumo = `Analise este documento jurídico e gere um resumo estruturado em português.

O resumo deve conter:
1. TIPO DE DOCUMENTO: (petição inicial, sentença, acórdão, etc)
2. PARTES: Autor(es) e Réu(s)
3. OBJETO: O que está sendo discutido/pedido
4. PRINCIPAIS ARGUMENTOS: Resumo dos argumentos apresentados
5. DECISÃO (se aplicável): Resultado/decisão do documento
6. PRAZOS (se mencionados): Datas e prazos relevantes
7. PRÓXIMOS PASSOS: Ações necessárias após este documento

Seja conciso mas completo.`

// SummarizeDocument produces a free-text structured summary of a legal
// document.
func (c *Client) SummarizeDocument(ctx context.Context, arquivo *Arquivo) (string, error) {
	resposta, err := c.generate(ctx, promptResumo, arquivo)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resposta), nil
}

// ClassificacaoDocumento is the automatic classification of an upload.
type ClassificacaoDocumento struct {
	TipoDocumento       string   `json:"tipo_documento"`
	Subtipo             *string  `json:"subtipo"`
	Confidence          float64  `json:"confidence"`
	CamposIdentificados []string `json:"campos_identificados"`
	QualidadeDocumento  *string  `json:"qualidade_documento"`
	Observacoes         *string  `json:"observacoes"`
}

const promptClassificacao = `Analise este documento e classifique-o. Responda em JSON:

{
  "tipo_documento": "RG|CNH|CPF|CNIS|PPP|CTPS|LAUDO_MEDICO|PETICAO|SENTENCA|ACORDAO|CARTA_BENEFICIO|COMPROVANTE_RESIDENCIA|PROCURACAO|OUTRO",
  "subtipo": "descrição mais específica se houver",
  "confidence": 0.0 a 1.0,
  "campos_identificados": ["lista de campos visíveis"],
  "qualidade_documento": "BOA|MEDIA|RUIM",
  "observacoes": "qualquer observação relevante"
}

Responda APENAS com JSON válido.`

// ClassifyDocument identifies what kind of document an upload is.
func (c *Client) ClassifyDocument(ctx context.Context, arquivo *Arquivo) (*ClassificacaoDocumento, error) {
	resposta, err := c.generateJSON(ctx, promptClassificacao, arquivo)
	if err != nil {
		return nil, err
	}
	var classificacao ClassificacaoDocumento
	if err := ParseJSONResposta(resposta, &classificacao); err != nil {
		return nil, err
	}
	return &classificacao, nil
}

// AnaliseViabilidade is the feasibility assessment for filing a benefit
// claim.
type AnaliseViabilidade struct {
	Viabilidade                    string   `json:"viabilidade"`
	PontosFortes                   []string `json:"pontos_fortes"`
	PontosFracos                   []string `json:"pontos_fracos"`
	DocumentosFaltantes            []string `json:"documentos_faltantes"`
	Riscos                         []string `json:"riscos"`
	Recomendacoes                  []string `json:"recomendacoes"`
	ProbabilidadeSucessoPercentual float64  `json:"probabilidade_sucesso_percentual"`
	Observacoes                    *string  `json:"observacoes"`
}

// AnalisarViabilidade assesses whether a benefit claim is worth filing
// given the client's data and available documents.
func (c *Client) AnalisarViabilidade(ctx context.Context, dadosCliente map[string]interface{}, tipoBeneficio string, documentos []string) (*AnaliseViabilidade, error) {
	clienteJSON, err := json.MarshalIndent(dadosCliente, "", "  ")
	if err != nil {
		return nil, err
	}
	documentosJSON, err := json.Marshal(documentos)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Analise a viabilidade de ajuizamento de ação previdenciária para %s.

Dados do Cliente:
%s

Documentos Disponíveis:
%s

Forneça análise em JSON com:
- viabilidade: ALTA, MEDIA, BAIXA
- pontos_fortes: Lista de pontos favoráveis ao cliente
- pontos_fracos: Lista de pontos desfavoráveis
- documentos_faltantes: Documentos necessários que não foram apresentados
- riscos: Lista de riscos identificados
- recomendacoes: Ações recomendadas antes do ajuizamento
- probabilidade_sucesso_percentual: Estimativa de 0 a 100
- observacoes: Considerações adicionais

Considere a jurisprudência do TRF e TNU sobre o tema.`, tipoBeneficio, clienteJSON, documentosJSON)

	resposta, err := c.generateJSON(ctx, prompt, nil)
	if err != nil {
		return nil, err
	}
	var analise AnaliseViabilidade
	if err := ParseJSONResposta(resposta, &analise); err != nil {
		return nil, err
	}
	return &analise, nil
}

// AnswerWithContext answers a question grounded on document excerpts
// retrieved by semantic search. The model is told to refuse when the
// excerpts do not cover the question.
func (c *Client) AnswerWithContext(ctx context.Context, pergunta string, trechos []string) (string, error) {
	var sb strings.Builder
	for i, trecho := range trechos {
		fmt.Fprintf(&sb, "--- Trecho %d ---\n%s\n\n", i+1, trecho)
	}

	prompt := fmt.Sprintf(`Você é um assistente jurídico previdenciário. Responda a pergunta abaixo usando EXCLUSIVAMENTE os trechos de documentos fornecidos.

Se os trechos não contiverem informação suficiente, diga que não há informação disponível nos documentos. Não invente dados.

Trechos:
%s
Pergunta: %s`, sb.String(), pergunta)

	resposta, err := c.generate(ctx, prompt, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resposta), nil
}
