// Command monitor is an operator dashboard showing open auctions and recent
// sales straight from the database.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/cpatton716/collectors-catalog/configs"
	"github.com/cpatton716/collectors-catalog/internal/database"
)

var (
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	baseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Every(30*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type model struct {
	db           database.Service
	auctions     table.Model
	sales        table.Model
	showAuctions bool
	quitting     bool
}

func (m model) Init() tea.Cmd {
	return tick()
}

func newModel(db database.Service) model {
	auctions := table.New(
		table.WithColumns([]table.Column{
			{Title: "AUCTION ID", Width: 36},
			{Title: "TITLE", Width: 24},
			{Title: "CURRENT BID", Width: 12},
			{Title: "BIDDERS", Width: 8},
			{Title: "TIME LEFT", Width: 16},
		}),
		table.WithHeight(10),
	)

	sales := table.New(
		table.WithColumns([]table.Column{
			{Title: "SALE ID", Width: 36},
			{Title: "KIND", Width: 8},
			{Title: "PRICE", Width: 12},
			{Title: "BUYER", Width: 36},
		}),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	auctions.SetStyles(s)
	sales.SetStyles(s)

	m := model{db: db, auctions: auctions, sales: sales, showAuctions: true}
	m.refresh()
	return m
}

func (m *model) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	auctions, err := m.db.ListOpenAuctions(ctx, 20)
	if err != nil {
		log.Error("Error getting auctions: ", err)
	} else {
		rows := make([]table.Row, 0, len(auctions))
		for _, a := range auctions {
			timeLeft := time.Until(a.EndDate).Round(time.Second).String()
			if time.Until(a.EndDate) < 0 {
				timeLeft = "Ended"
			}
			rows = append(rows, table.Row{
				a.ID,
				a.Title,
				centsToDollars(a.CurrentBid),
				fmt.Sprintf("%d", a.BiddersCount),
				timeLeft,
			})
		}
		m.auctions.SetRows(rows)
	}

	sales, err := m.db.ListRecentTransactions(ctx, 20)
	if err != nil {
		log.Error("Error getting transactions: ", err)
	} else {
		rows := make([]table.Row, 0, len(sales))
		for _, t := range sales {
			rows = append(rows, table.Row{t.ID, t.ItemType, centsToDollars(t.Price), t.BuyerID})
		}
		m.sales.SetRows(rows)
	}
}

func centsToDollars(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tickMsg:
		m.refresh()
		return m, tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "tab":
			m.showAuctions = !m.showAuctions
		case "r":
			m.refresh()
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	}

	if m.showAuctions {
		m.auctions, cmd = m.auctions.Update(msg)
	} else {
		m.sales, cmd = m.sales.Update(msg)
	}
	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return "Bye!\n"
	}
	var view string
	if m.showAuctions {
		view = baseStyle.Render(m.auctions.View())
	} else {
		view = baseStyle.Render(m.sales.View())
	}
	return view + "\n" + helpStyle.Render("• tab: switch views • r: refresh • q: exit\n")
}

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	db, err := database.New(context.Background(), cfg)
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}
	defer db.Close()

	p := tea.NewProgram(newModel(db), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running dashboard: %v", err)
	}
}
