// Package dashboard builds the analytics panels shown next to the editor.
package dashboard

// Deadline is one bar of the compliance impact chart.
type Deadline struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Date  string `json:"date"`
}

// Share is one slice of a pie chart.
type Share struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type TalentPoint struct {
	Month  string `json:"month"`
	Supply int    `json:"supply"`
	Demand int    `json:"demand"`
}

type CyberScore struct {
	Subject  string `json:"subject"`
	Score    int    `json:"score"`
	FullMark int    `json:"full_mark"`
}

type AdoptionPoint struct {
	Year       string `json:"year"`
	Adoption   int    `json:"adoption"`
	Regulation int    `json:"regulation"`
}

// Panel palette, in chart order.
var Palette = []string{"#8884d8", "#82ca9d", "#ffc658", "#ff7300", "#0088FE", "#00C49F"}

func deadlines() []Deadline {
	return []Deadline{
		{Name: "EU AI Act", Value: 80, Date: "2025 H1"},
		{Name: "UK Framework", Value: 60, Date: "Jul 2025"},
		{Name: "USA QMSR", Value: 95, Date: "Feb 2026"},
		{Name: "China GB9706", Value: 90, Date: "2026"},
		{Name: "EU IVDR", Value: 70, Date: "2027"},
	}
}

func riskMix() []Share {
	return []Share{
		{Name: "Low Risk", Value: 30},
		{Name: "Class IIa (AI)", Value: 45},
		{Name: "High Risk", Value: 25},
	}
}

// talentGap: demand overtakes supply from March on.
func talentGap() []TalentPoint {
	return []TalentPoint{
		{Month: "Jan", Supply: 4000, Demand: 2400},
		{Month: "Mar", Supply: 3000, Demand: 4500},
		{Month: "Jun", Supply: 2000, Demand: 6000},
		{Month: "Sep", Supply: 1500, Demand: 7500},
		{Month: "Dec", Supply: 1000, Demand: 8000},
	}
}

func cyberReadiness() []CyberScore {
	return []CyberScore{
		{Subject: "SBOM", Score: 120, FullMark: 150},
		{Subject: "Threat Modeling", Score: 98, FullMark: 150},
		{Subject: "Patch Mgmt", Score: 86, FullMark: 150},
		{Subject: "Encryption", Score: 99, FullMark: 150},
		{Subject: "Auth", Score: 85, FullMark: 150},
		{Subject: "Audit Log", Score: 65, FullMark: 150},
	}
}

func adoptionTrend() []AdoptionPoint {
	return []AdoptionPoint{
		{Year: "2023", Adoption: 20, Regulation: 10},
		{Year: "2024", Adoption: 35, Regulation: 25},
		{Year: "2025", Adoption: 60, Regulation: 70},
		{Year: "2026", Adoption: 85, Regulation: 90},
	}
}
