package view

import (
	"encoding/json"
	"html/template"

	"github.com/unclebandit/prospecting-dashboard/internal/model"
)

type LoginPage struct {
	Email string
	Error string
}

type HomePage struct {
	UserName    string
	Active      []*model.Campaign
	ActiveCount int
	Limit       int
	ChartJSON   template.JS
}

type CampaignFormPage struct {
	UserName string
	Kinds    []string
}

type HistoryPage struct {
	UserName  string
	Campaigns []*model.Campaign
}

// BasicPage backs pages that only show the signed-in user.
type BasicPage struct {
	UserName string
}

// ChartJSON encodes the chart series for inline use in a script block.
func ChartJSON(points []model.ChartPoint) (template.JS, error) {
	if points == nil {
		points = []model.ChartPoint{}
	}
	data, err := json.Marshal(points)
	if err != nil {
		return "", err
	}
	return template.JS(data), nil
}

// MessagePage is the shared layout of the launch outcome pages.
type MessagePage struct {
	UserName string
	Title    string
	Body     string
	Class    string
	Link     string
	LinkText string
}

// Outcomes holds the fixed copy for each launch result page, keyed by page name.
var Outcomes = map[string]MessagePage{
	"prospection-success": {
		Title: "Campanha iniciada", Class: "success",
		Body: "A prospecção foi enviada e já aparece entre as campanhas ativas.",
		Link: "/", LinkText: "Voltar ao painel",
	},
	"prospection-error": {
		Title: "Falha ao iniciar", Class: "failure",
		Body: "O fluxo de prospecção não respondeu. Nenhuma vaga ficou ocupada, tente novamente.",
		Link: "/campanhaProspeccao", LinkText: "Tentar de novo",
	},
	"campaign-limit": {
		Title: "Limite atingido", Class: "failure",
		Body: "O número máximo de campanhas ativas foi atingido. Pare ou aguarde uma campanha terminar.",
		Link: "/", LinkText: "Voltar ao painel",
	},
	"campaign-type-error": {
		Title: "Base desconhecida", Class: "failure",
		Body: "A base escolhida não tem um fluxo configurado.",
		Link: "/campanhaProspeccao", LinkText: "Escolher outra base",
	},
}
