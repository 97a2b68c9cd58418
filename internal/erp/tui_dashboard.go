package erp

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

type dashboardLoadedMsg struct {
	data *ReportData
}

// loadDashboard loads every view and summarizes it
func (m Model) loadDashboard() tea.Cmd {
	ws, ctx := m.ws, m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return dashboardLoadedMsg{ws.Report(ctx)}
	})
}

func (m Model) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.view = ViewMain
		return m, nil
	case "r":
		m.loading = true
		return m, m.loadDashboard()
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) resizeViewport() {
	if m.width == 0 || m.height == 0 {
		return
	}
	h := m.height - 8
	if h < 5 {
		h = 5
	}
	if !m.viewportReady {
		m.viewport = viewport.New(m.width-2, h)
		m.viewportReady = true
	} else {
		m.viewport.Width = m.width - 2
		m.viewport.Height = h
	}
	m.viewport.SetContent(m.renderDashboardContent())
}

// renderDashboard renders the dashboard view with scrollable viewport
func (m Model) renderDashboard() string {
	if m.loading {
		return fmt.Sprintf("\n  %s Loading dashboard...", m.spinner.View())
	}

	if m.dashboardData == nil {
		return "\n  No data available"
	}

	if !m.viewportReady {
		return "\n  Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.viewport.TotalLineCount() > m.viewport.VisibleLineCount() {
		b.WriteString(helpStyle.Render(fmt.Sprintf("  ↑↓ scroll • %.0f%% ", m.viewport.ScrollPercent()*100)))
	}
	return b.String()
}

// renderDashboardContent returns the dashboard content for the viewport
func (m Model) renderDashboardContent() string {
	data := m.dashboardData
	if data == nil {
		return "No data available"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(" " + strings.ToUpper(m.brand) + " DASHBOARD "))
	b.WriteString("\n\n")

	if m.ws.Session.CanView("sales") {
		b.WriteString(renderSection("SALES ORDERS", data.Sales, true))
	}
	if m.ws.Session.CanView("shipments") {
		b.WriteString(renderSection("SHIPMENTS", data.Shipments, false))
	}
	if m.ws.Session.CanView("purchases") {
		b.WriteString(renderSection("PURCHASE ORDERS", data.Purchases, true))
		if len(data.TopSuppliers) > 0 {
			b.WriteString("  Top Suppliers:\n")
			for i, s := range data.TopSuppliers {
				name := s.Name
				if len(name) > 25 {
					name = name[:22] + "..."
				}
				b.WriteString(fmt.Sprintf("    %d. %-25s %3d POs  %s\n", i+1, name, s.POCount, FormatCurrency(s.Value)))
			}
			b.WriteString("\n")
		}
	}
	if m.ws.Session.CanView("inventory") {
		b.WriteString(selectedStyle.Render("STOCK"))
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("  Total Items:        %d\n", data.TotalItems))
		if data.StockKnown {
			b.WriteString(fmt.Sprintf("  Inventory Value:    %s\n", FormatCurrency(data.TotalStockValue)))
			b.WriteString(fmt.Sprintf("  Low Stock:          %d\n", data.LowStockItems))
			if data.ZeroStockItems > 0 {
				b.WriteString(fmt.Sprintf("  Out of Stock:       %s\n", errorStyle.Render(fmt.Sprintf("%d", data.ZeroStockItems))))
			} else {
				b.WriteString("  Out of Stock:       0\n")
			}
		} else {
			b.WriteString("  Stock levels unavailable\n")
		}
		b.WriteString(fmt.Sprintf("\n  Active Suppliers:   %d\n\n", data.TotalSuppliers))
	}

	b.WriteString(helpStyle.Render("Updated: " + data.GeneratedAt.Format("2006-01-02 15:04:05")))

	if len(data.Errors) > 0 {
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render("Warnings:"))
		for _, err := range data.Errors {
			b.WriteString(fmt.Sprintf("\n  - %s", err))
		}
	}
	return b.String()
}

func renderSection(title string, s SectionStats, money bool) string {
	var b strings.Builder
	b.WriteString(selectedStyle.Render(title))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("  Active:             %d (%d open)\n", s.Total-s.Archived, s.Open))
	b.WriteString(fmt.Sprintf("  Archived:           %d\n", s.Archived))
	if money {
		b.WriteString(fmt.Sprintf("  Value:              %s\n", FormatCurrency(s.Value)))
	}
	for _, c := range s.ByStatus {
		b.WriteString(fmt.Sprintf("    %-20s %d\n", c.Status, c.Count))
	}
	b.WriteString("\n")
	return b.String()
}
