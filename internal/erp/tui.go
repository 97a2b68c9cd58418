package erp

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mikelcalvo/wms/internal/listcore"
	"github.com/mikelcalvo/wms/internal/logger"
	"github.com/mikelcalvo/wms/internal/prefs"
)

// Version info
const (
	Version = "2.0.0"
	Author  = "Mikel Calvo"
	Year    = "2026"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#333333")).
			Padding(0, 1)

	vpnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	internetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF9500")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	creditStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(1, 2)

	bannerStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#7D56F4")).
			Foreground(lipgloss.Color("#FFF"))

	archivedBadge = lipgloss.NewStyle().
			Background(lipgloss.Color("#666666")).
			Foreground(lipgloss.Color("#FFF")).
			Padding(0, 1)

	notificationSuccess = lipgloss.NewStyle().
				Background(lipgloss.Color("#04B575")).
				Foreground(lipgloss.Color("#FFF")).
				Padding(0, 1).
				Bold(true)

	notificationWarning = lipgloss.NewStyle().
				Background(lipgloss.Color("#FF9500")).
				Foreground(lipgloss.Color("#000")).
				Padding(0, 1).
				Bold(true)

	notificationError = lipgloss.NewStyle().
				Background(lipgloss.Color("#FF4444")).
				Foreground(lipgloss.Color("#FFF")).
				Padding(0, 1).
				Bold(true)

	breadcrumbStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

// screenKind represents different screens
type screenKind int

const (
	ViewMain screenKind = iota
	ViewList
	ViewDashboard
)

// MenuItem for the main menu
type MenuItem struct {
	title       string
	description string
	view        screenKind
	screen      int
}

func (i MenuItem) Title() string       { return i.title }
func (i MenuItem) Description() string { return i.description }
func (i MenuItem) FilterValue() string { return i.title }

// relay forwards messages from background goroutines to the running
// program. Messages sent before a program is attached are dropped.
type relay struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func (r *relay) attach(p *tea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.send = p.Send
}

func (r *relay) Send(msg tea.Msg) {
	r.mu.Lock()
	send := r.send
	r.mu.Unlock()
	if send != nil {
		// Send blocks until the event loop reads it, and callers may be
		// inside Update.
		go send(msg)
	}
}

// Messages
type connectedMsg struct {
	mode string
	url  string
	user string
	err  error
}

type toastMsg listcore.Toast

type clearNotificationMsg struct {
	seq int
}

// Model is the main TUI model
type Model struct {
	ctx    context.Context
	ws     *Workspace
	client *Client // nil in demo mode
	brand  string
	log    logger.Logger

	view     screenKind
	width    int
	height   int
	mainMenu list.Model
	screens  []screen
	active   int
	message  string

	spinner    spinner.Model
	connecting bool
	user       string

	notification     listcore.Toast
	showNotification bool
	notificationSeq  int

	dashboardData *ReportData
	loading       bool
	viewport      viewport.Model
	viewportReady bool
}

// NewTUI creates a new TUI model over ws. client is nil in demo mode.
func NewTUI(ctx context.Context, ws *Workspace, client *Client, brand string, log logger.Logger, notify func(listcore.Toast)) Model {
	if log == nil {
		log = logger.Discard()
	}
	suggest := map[string]func() []string{
		"customer":    ws.Customers.Names,
		"supplier":    ws.SupplierNames.Names,
		"sales_order": ws.OrderNames.Names,
	}

	var screens []screen
	add := func(s screen) {
		if ws.Session.CanView(s.Key()) {
			screens = append(screens, s)
		}
	}
	add(newListScreen(ctx, ws.Sales, log, notify, suggest))
	add(newListScreen(ctx, ws.Inventory, log, notify, suggest))
	add(newListScreen(ctx, ws.Purchases, log, notify, suggest))
	add(newListScreen(ctx, ws.Shipments, log, notify, suggest))
	add(newListScreen(ctx, ws.Suppliers, log, notify, suggest))

	descriptions := map[string]string{
		"sales":     "Customer orders, delivery dates and totals",
		"inventory": "Items, stock levels and valuation",
		"purchases": "Orders to suppliers",
		"shipments": "Delivery notes, carriers and tracking",
		"suppliers": "Supplier master data",
	}
	menuItems := []list.Item{MenuItem{"Dashboard", "Executive summary & KPIs", ViewDashboard, -1}}
	for i, s := range screens {
		menuItems = append(menuItems, MenuItem{s.Title(), descriptions[s.Key()], ViewList, i})
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	mainMenu := list.New(menuItems, delegate, 0, 0)
	mainMenu.Title = brand
	mainMenu.SetShowStatusBar(false)
	mainMenu.SetFilteringEnabled(false)
	mainMenu.Styles.Title = titleStyle

	// Initialize spinner
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	return Model{
		ctx:        ctx,
		ws:         ws,
		client:     client,
		brand:      brand,
		log:        log,
		view:       ViewMain,
		mainMenu:   mainMenu,
		screens:    screens,
		spinner:    s,
		connecting: client != nil,
		user:       ws.Session.User,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.detectConnection(),
		m.spinner.Tick,
	)
}

func (m Model) detectConnection() tea.Cmd {
	if m.client == nil {
		return nil
	}
	return func() tea.Msg {
		m.client.DetectConnection(m.ctx)
		user, err := m.client.LoggedUser(m.ctx)
		return connectedMsg{mode: m.client.Mode, url: m.client.ActiveURL, user: user, err: err}
	}
}

func (m *Model) showToast(t listcore.Toast) tea.Cmd {
	m.notification = t
	m.showNotification = true
	m.notificationSeq++
	seq := m.notificationSeq
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return clearNotificationMsg{seq}
	})
}

func (m Model) screenByKey(k string) screen {
	for _, s := range m.screens {
		if s.Key() == k {
			return s
		}
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.mainMenu.SetSize(msg.Width-4, msg.Height-8)
		for _, s := range m.screens {
			s.Resize(msg.Width, msg.Height)
		}
		m.resizeViewport()
		return m, nil

	case connectedMsg:
		m.connecting = false
		if msg.err != nil {
			m.message = msg.err.Error()
			m.log.Error("connection check failed", "err", msg.err)
		} else if m.user == "" {
			m.user = msg.user
		}
		return m, nil

	case toastMsg:
		return m, m.showToast(listcore.Toast(msg))

	case clearNotificationMsg:
		if msg.seq == m.notificationSeq {
			m.showNotification = false
		}
		return m, nil

	case loadedMsg:
		if s := m.screenByKey(msg.key); s != nil {
			return m, s.Handle(msg)
		}
		return m, nil

	case mutationDoneMsg:
		if s := m.screenByKey(msg.key); s != nil {
			return m, s.Handle(msg)
		}
		return m, nil

	case refreshMsg:
		if m.view == ViewList {
			return m, m.screens[m.active].Handle(msg)
		}
		return m, nil

	case dashboardLoadedMsg:
		m.loading = false
		m.dashboardData = msg.data
		m.resizeViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		m.message = ""
		switch m.view {
		case ViewMain:
			return m.updateMain(msg)
		case ViewDashboard:
			return m.updateDashboard(msg)
		case ViewList:
			cmd, handled := m.screens[m.active].HandleKey(msg)
			if !handled {
				m.view = ViewMain
			}
			return m, cmd
		}
	}

	if m.view == ViewList {
		return m, m.screens[m.active].Handle(msg)
	}
	return m, nil
}

func (m Model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "enter":
		item, ok := m.mainMenu.SelectedItem().(MenuItem)
		if !ok {
			return m, nil
		}
		m.view = item.view
		if item.view == ViewDashboard {
			m.loading = true
			return m, m.loadDashboard()
		}
		m.active = item.screen
		return m, m.screens[m.active].Load()
	}
	var cmd tea.Cmd
	m.mainMenu, cmd = m.mainMenu.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var content string
	switch m.view {
	case ViewMain:
		content = m.mainMenu.View()
	case ViewDashboard:
		content = m.renderDashboard()
	case ViewList:
		content = m.screens[m.active].View()
	}

	var b strings.Builder

	// Status bar
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")

	// Breadcrumbs
	b.WriteString(m.renderBreadcrumbs())
	b.WriteString("\n")

	// Notification (auto-dismisses)
	if m.showNotification {
		switch m.notification.Level {
		case listcore.ToastSuccess:
			b.WriteString(notificationSuccess.Render("✓ " + m.notification.Message))
		case listcore.ToastWarning:
			b.WriteString(notificationWarning.Render("! " + m.notification.Message))
		default:
			b.WriteString(notificationError.Render("✗ " + m.notification.Message))
		}
		b.WriteString("\n")
	}

	// Content
	b.WriteString(content)

	// Error message (persists until a key is pressed)
	if m.message != "" {
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render("Error: " + m.message))
	}

	// Help
	b.WriteString("\n\n")
	b.WriteString(m.renderHelp())

	// Credits
	b.WriteString("\n")
	b.WriteString(m.renderCredits())

	return b.String()
}

func (m Model) renderStatusBar() string {
	var mode string
	switch {
	case m.client == nil:
		mode = internetStyle.Render("● Demo")
	case m.connecting:
		mode = m.spinner.View() + " connecting"
	case m.client.Mode == "vpn":
		mode = vpnStyle.Render("● VPN")
	default:
		mode = internetStyle.Render("● Internet")
	}

	status := fmt.Sprintf(" %s | %s", m.brand, mode)
	if m.client != nil {
		status += " | " + m.client.ActiveURL
	}
	if m.user != "" {
		status += fmt.Sprintf(" | %s (%s)", m.user, m.ws.Session.Role)
	}
	return statusBarStyle.Render(status + " ")
}

func (m Model) renderBreadcrumbs() string {
	crumbs := []string{"Main"}
	switch m.view {
	case ViewDashboard:
		crumbs = append(crumbs, "Dashboard")
	case ViewList:
		crumbs = append(crumbs, m.screens[m.active].Title())
	}
	return breadcrumbStyle.Render("  " + strings.Join(crumbs, " > "))
}

func (m Model) renderHelp() string {
	var help string
	switch m.view {
	case ViewMain:
		help = "↑/↓: navigate • enter: select • q: quit"
	case ViewDashboard:
		help = "↑/↓/pgup/pgdn: scroll • r: refresh • esc: back"
	case ViewList:
		return m.screens[m.active].Help()
	}
	return helpStyle.Render(help)
}

func (m Model) renderCredits() string {
	return creditStyle.Render(fmt.Sprintf("Created by %s in %s • v%s", Author, Year, Version))
}

// boundary catches panics from the model, logs them and shows a recovery
// panel instead of tearing down the terminal.
type boundary struct {
	inner tea.Model
	reset func() tea.Model
	log   logger.Logger
	err   any
}

func (b *boundary) Init() tea.Cmd {
	return b.inner.Init()
}

func (b *boundary) Update(msg tea.Msg) (m tea.Model, cmd tea.Cmd) {
	if b.err != nil {
		if k, ok := msg.(tea.KeyMsg); ok {
			switch k.String() {
			case "r":
				b.err = nil
				b.inner = b.reset()
				return b, b.inner.Init()
			case "q", "ctrl+c":
				return b, tea.Quit
			}
		}
		return b, nil
	}
	defer func() {
		if r := recover(); r != nil {
			b.fail(r)
			m, cmd = b, nil
		}
	}()
	b.inner, cmd = b.inner.Update(msg)
	return b, cmd
}

func (b *boundary) View() (out string) {
	if b.err != nil {
		return b.panel()
	}
	defer func() {
		if r := recover(); r != nil {
			b.fail(r)
			out = b.panel()
		}
	}()
	return b.inner.View()
}

func (b *boundary) fail(r any) {
	b.err = r
	b.log.Error("panic in terminal UI", "panic", r, "stack", string(debug.Stack()))
}

func (b *boundary) panel() string {
	content := fmt.Sprintf("\n  Something went wrong.\n\n  %v\n\n  [r] Reload    [q] Quit\n", b.err)
	return boxStyle.BorderForeground(lipgloss.Color("#FF4444")).Render(content)
}

// TUIOptions configures RunTUI.
type TUIOptions struct {
	Services  Services
	Workspace WorkspaceOptions
	Client    *Client // nil in demo mode
	Brand     string
	PrefsPath string
	Log       logger.Logger
}

// RunTUI starts the TUI and saves view preferences on exit.
func RunTUI(ctx context.Context, opts TUIOptions) error {
	log := opts.Log
	if log == nil {
		log = logger.Discard()
	}
	r := &relay{}
	notify := func(t listcore.Toast) { r.Send(toastMsg(t)) }

	wopts := opts.Workspace
	wopts.Log = log
	wopts.Notifier = listcore.NotifierFunc(notify)
	wopts.OnChange = func() { r.Send(refreshMsg{}) }

	var ws *Workspace
	build := func() tea.Model {
		if ws != nil {
			ws.Close()
		}
		ws = NewWorkspace(opts.Services, wopts)
		return NewTUI(ctx, ws, opts.Client, opts.Brand, log, notify)
	}
	root := &boundary{inner: build(), reset: build, log: log}

	p := tea.NewProgram(root, tea.WithAltScreen(), tea.WithContext(ctx))
	r.attach(p)
	_, err := p.Run()

	ws.Close()
	if opts.PrefsPath != "" {
		saved, _ := prefs.Load(opts.PrefsPath)
		ws.SavePrefs(&saved)
		if serr := prefs.Save(opts.PrefsPath, saved); serr != nil {
			log.Warn("could not save preferences", "err", serr)
		}
	}
	return err
}
