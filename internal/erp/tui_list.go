package erp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mikelcalvo/wms/internal/listcore"
	"github.com/mikelcalvo/wms/internal/logger"
)

// screen is one entity list as the Model sees it.
type screen interface {
	Key() string
	Title() string
	Load() tea.Cmd
	// HandleKey returns false when the key should go back to the menu.
	HandleKey(msg tea.KeyMsg) (tea.Cmd, bool)
	Handle(msg tea.Msg) tea.Cmd
	// Capturing reports whether text entry owns the keyboard.
	Capturing() bool
	Resize(width, height int)
	View() string
	Help() string
}

type listMode int

const (
	modeBrowse listMode = iota
	modeSearch
	modeForm
	modeConfirm
	modeDetail
)

type listKeyMap struct {
	Search, Status, Archived, Clear, Sort, Page          key.Binding
	Toggle, SelectPage, SelectAll, Deselect              key.Binding
	New, Edit, Archive, Restore, Delete, Export, Refresh key.Binding
	Detail, Back                                         key.Binding
}

var listKeys = listKeyMap{
	Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Status:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "status")),
	Archived:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "archived")),
	Clear:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear filters")),
	Sort:       key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "sort")),
	Page:       key.NewBinding(key.WithKeys("left", "right", "h", "l"), key.WithHelp("←/→", "page")),
	Toggle:     key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "select")),
	SelectPage: key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "select page")),
	SelectAll:  key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "select all")),
	Deselect:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear selection/back")),
	New:        key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
	Edit:       key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Archive:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "archive")),
	Restore:    key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "restore")),
	Delete:     key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete")),
	Export:     key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "export")),
	Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Detail:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "detail")),
	Back:       key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "menu")),
}

func (k listKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Status, k.Archived, k.Sort, k.Page, k.Toggle, k.New, k.Archive, k.Delete, k.Refresh}
}

func (k listKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Search, k.Status, k.Archived, k.Clear, k.Sort, k.Page},
		{k.Toggle, k.SelectPage, k.SelectAll, k.Deselect},
		{k.New, k.Edit, k.Archive, k.Restore, k.Delete},
		{k.Export, k.Refresh, k.Detail, k.Back},
	}
}

// Messages produced by list screens
type loadedMsg struct {
	key    string
	report listcore.LoadReport
	err    error
}

type mutationDoneMsg struct {
	key  string
	form bool
	err  error
}

type refreshMsg struct{}

type confirmState struct {
	ids    []string
	bulk   bool
	prompt string
}

// listScreen renders and drives one entity list.
type listScreen[T stampable[T]] struct {
	ctx     context.Context
	view    *View[T]
	log     logger.Logger
	suggest map[string]func() []string
	notify  func(listcore.Toast)

	table  table.Model
	search textinput.Model
	help   help.Model
	form   *entityForm
	base   T
	edit   bool

	mode    listMode
	confirm confirmState
	detail  T
	width   int
	height  int
	loaded  bool
	err     error
}

func newListScreen[T stampable[T]](ctx context.Context, v *View[T], log logger.Logger, notify func(listcore.Toast), suggest map[string]func() []string) *listScreen[T] {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search " + v.Entity.Plural
	search.CharLimit = 100

	t := table.New(table.WithFocused(true), table.WithHeight(10))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	styles.Selected = selectedStyle
	t.SetStyles(styles)

	s := &listScreen[T]{
		ctx:     ctx,
		view:    v,
		log:     log.With("view", v.Entity.Key),
		suggest: suggest,
		notify:  notify,
		table:   t,
		search:  search,
		help:    help.New(),
	}
	s.refresh()
	return s
}

func (s *listScreen[T]) Key() string   { return s.view.Entity.Key }
func (s *listScreen[T]) Title() string { return s.view.Entity.Title }

func (s *listScreen[T]) caps() listcore.Capabilities {
	return s.view.List.Dispatcher().Capabilities()
}

func (s *listScreen[T]) Load() tea.Cmd {
	l, k := s.view.List, s.Key()
	return func() tea.Msg {
		report, err := l.Load(s.ctx)
		return loadedMsg{key: k, report: report, err: err}
	}
}

func (s *listScreen[T]) Capturing() bool {
	return s.mode == modeSearch || s.mode == modeForm
}

func (s *listScreen[T]) Resize(width, height int) {
	s.width, s.height = width, height
	s.help.Width = width
	s.table.SetWidth(width - 2)
	// status bar, breadcrumbs, filter line, banner, footer, help
	h := height - 12
	if h < 3 {
		h = 3
	}
	s.table.SetHeight(h)
}

func (s *listScreen[T]) Handle(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadedMsg:
		s.err = msg.err
		if msg.err == nil {
			s.loaded = true
			for name, err := range msg.report.Errors {
				if err != nil && name != "primary" {
					s.log.Warn("lookup unavailable", "source", name, "err", err)
				}
			}
		}
	case mutationDoneMsg:
		if msg.form && s.mode == modeForm && s.form != nil {
			s.form.busy = false
			if msg.err != nil {
				s.form.err = msg.err.Error()
			} else {
				s.mode = modeBrowse
				s.form = nil
			}
		}
	case refreshMsg:
	default:
		var cmd tea.Cmd
		switch s.mode {
		case modeSearch:
			s.search, cmd = s.search.Update(msg)
		case modeForm:
			cmd, _ = s.form.update(msg)
		}
		return cmd
	}
	s.refresh()
	return nil
}

// refresh rebuilds the table from the list's current page.
func (s *listScreen[T]) refresh() {
	page := s.view.List.View()
	e := s.view.Entity

	cols := []table.Column{{Title: " ", Width: 3}}
	for i, c := range e.Table {
		title := c.Title
		if c.Key != "" && page.Sort.Column == c.Key {
			if page.Sort.Direction == listcore.Desc {
				title += " ▼"
			} else {
				title += " ▲"
			}
		}
		if c.Key != "" && i < 9 {
			title = strconv.Itoa(i+1) + ":" + title
		}
		cols = append(cols, table.Column{Title: title, Width: c.Width})
	}

	rows := make([]table.Row, len(page.Rows))
	for i, r := range page.Rows {
		mark := "[ ]"
		if s.view.List.IsSelected(r.RecordID()) {
			mark = "[x]"
		}
		row := table.Row{mark}
		for _, c := range e.Table {
			row = append(row, c.Value(r))
		}
		rows[i] = row
	}

	cursor := s.table.Cursor()
	// Columns must change before rows so the row width matches.
	s.table.SetRows(nil)
	s.table.SetColumns(cols)
	s.table.SetRows(rows)
	if cursor >= len(rows) {
		cursor = len(rows) - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	s.table.SetCursor(cursor)
}

func (s *listScreen[T]) current() (T, bool) {
	page := s.view.List.View()
	i := s.table.Cursor()
	if i < 0 || i >= len(page.Rows) {
		var zero T
		return zero, false
	}
	return page.Rows[i], true
}

func (s *listScreen[T]) toast(level listcore.ToastLevel, format string, args ...any) {
	s.notify(listcore.Toast{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (s *listScreen[T]) HandleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch s.mode {
	case modeSearch:
		return s.handleSearchKey(msg), true
	case modeForm:
		return s.handleFormKey(msg), true
	case modeConfirm:
		return s.handleConfirmKey(msg), true
	case modeDetail:
		switch msg.String() {
		case "esc", "enter", "q":
			s.mode = modeBrowse
		}
		return nil, true
	}

	l := s.view.List
	var cmd tea.Cmd
	switch {
	case key.Matches(msg, listKeys.Search):
		s.mode = modeSearch
		s.search.SetValue(l.View().Filter.SearchTerm)
		s.search.CursorEnd()
		cmd = s.search.Focus()
	case key.Matches(msg, listKeys.Status):
		s.cycleStatus()
	case key.Matches(msg, listKeys.Archived):
		l.SetShowArchived(!l.Filter().ShowArchived)
	case key.Matches(msg, listKeys.Clear):
		l.ClearFilters()
		s.search.SetValue("")
	case key.Matches(msg, listKeys.Sort):
		n, _ := strconv.Atoi(msg.String())
		if col, ok := s.view.Entity.SortKey(n); ok {
			l.ToggleSort(col)
		}
	case key.Matches(msg, listKeys.Page):
		if msg.String() == "left" || msg.String() == "h" {
			l.PrevPage()
		} else {
			l.NextPage()
		}
	case key.Matches(msg, listKeys.Toggle):
		if r, ok := s.current(); ok {
			l.ToggleRow(r.RecordID())
		}
	case key.Matches(msg, listKeys.SelectPage):
		l.TogglePageSelection()
	case key.Matches(msg, listKeys.SelectAll):
		l.SelectAllPages()
	case key.Matches(msg, listKeys.Deselect):
		if l.View().Selected == 0 {
			return nil, false
		}
		l.ClearSelection()
	case key.Matches(msg, listKeys.Back):
		return nil, false
	case key.Matches(msg, listKeys.New):
		cmd = s.openForm(false)
	case key.Matches(msg, listKeys.Edit):
		cmd = s.openForm(true)
	case key.Matches(msg, listKeys.Archive):
		cmd = s.mutate(listcore.BulkArchive)
	case key.Matches(msg, listKeys.Restore):
		cmd = s.mutate(listcore.BulkRestore)
	case key.Matches(msg, listKeys.Delete):
		s.askDelete()
	case key.Matches(msg, listKeys.Export):
		cmd = s.export()
	case key.Matches(msg, listKeys.Refresh):
		cmd = s.Load()
	case key.Matches(msg, listKeys.Detail):
		if r, ok := s.current(); ok {
			s.detail = r
			s.mode = modeDetail
		}
	default:
		s.table, cmd = s.table.Update(msg)
		return cmd, true
	}
	s.refresh()
	return cmd, true
}

func (s *listScreen[T]) cycleStatus() {
	statuses := s.view.Entity.Statuses
	if len(statuses) == 0 {
		statuses = s.view.List.Statuses()
	}
	current := s.view.List.Filter().Status
	next := statuses[0]
	if current != "" && current != listcore.StatusAll {
		next = listcore.StatusAll
		for i, st := range statuses {
			if st == current && i+1 < len(statuses) {
				next = statuses[i+1]
			}
		}
	}
	s.view.List.SetStatus(next)
}

func (s *listScreen[T]) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		s.view.List.FlushSearch()
		s.search.Blur()
		s.mode = modeBrowse
		s.refresh()
		return nil
	case "esc":
		s.search.Blur()
		s.mode = modeBrowse
		return nil
	}
	var cmd tea.Cmd
	s.search, cmd = s.search.Update(msg)
	s.view.List.SetSearchInput(s.search.Value())
	return cmd
}

func (s *listScreen[T]) openForm(edit bool) tea.Cmd {
	e := s.view.Entity
	var zero T
	values := map[string]string{}
	title := "New " + e.Singular
	if edit {
		r, ok := s.current()
		if !ok {
			return nil
		}
		if !listcore.Allows(r, s.caps(), listcore.ActionEdit) {
			s.toast(listcore.ToastWarning, "%s cannot be edited", r.RecordID())
			return nil
		}
		zero = r
		values = e.ToForm(r)
		title = "Edit " + r.RecordID()
	} else if !s.caps().CanCreate {
		s.toast(listcore.ToastWarning, "You cannot create %s", e.Plural)
		return nil
	}
	s.base, s.edit = zero, edit
	s.form = newEntityForm(title, e.Form, values, s.suggest)
	s.mode = modeForm
	return textinput.Blink
}

func (s *listScreen[T]) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "esc" {
		s.mode = modeBrowse
		s.form = nil
		return nil
	}
	cmd, submit := s.form.update(msg)
	if !submit {
		return cmd
	}

	record, err := s.view.Entity.FromForm(s.base, s.form.values())
	if err != nil {
		s.form.err = err.Error()
		return nil
	}
	s.form.err = ""
	s.form.busy = true
	l, k, edit := s.view.List, s.Key(), s.edit
	return func() tea.Msg {
		var err error
		if edit {
			_, err = l.Update(s.ctx, record)
		} else {
			_, err = l.Create(s.ctx, record)
		}
		return mutationDoneMsg{key: k, form: true, err: err}
	}
}

// mutate archives or restores the selection, or the row under the cursor
// when nothing is selected.
func (s *listScreen[T]) mutate(op listcore.BulkOp) tea.Cmd {
	l, k := s.view.List, s.Key()
	if l.View().Selected > 0 {
		return func() tea.Msg {
			_, err := l.Bulk(s.ctx, op)
			return mutationDoneMsg{key: k, err: err}
		}
	}
	r, ok := s.current()
	if !ok {
		return nil
	}
	id := r.RecordID()
	return func() tea.Msg {
		var err error
		if op == listcore.BulkRestore {
			err = l.Restore(s.ctx, id)
		} else {
			err = l.Archive(s.ctx, id)
		}
		return mutationDoneMsg{key: k, err: err}
	}
}

func (s *listScreen[T]) askDelete() {
	if !s.caps().CanPermanentlyDelete {
		s.toast(listcore.ToastWarning, "You cannot permanently delete %s", s.view.Entity.Plural)
		return
	}
	if ids := s.view.List.SelectedIDs(); len(ids) > 0 {
		s.confirm = confirmState{ids: ids, bulk: true,
			prompt: fmt.Sprintf("Permanently delete %d %s?", len(ids), s.view.Entity.Plural)}
		s.mode = modeConfirm
		return
	}
	r, ok := s.current()
	if !ok {
		return
	}
	s.confirm = confirmState{ids: []string{r.RecordID()},
		prompt: fmt.Sprintf("Permanently delete %s %q?", s.view.Entity.Singular, r.RecordID())}
	s.mode = modeConfirm
}

func (s *listScreen[T]) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		s.mode = modeBrowse
		c, l, k := s.confirm, s.view.List, s.Key()
		return func() tea.Msg {
			var err error
			if c.bulk {
				_, err = l.Bulk(s.ctx, listcore.BulkDelete)
			} else {
				err = l.Delete(s.ctx, c.ids[0])
			}
			return mutationDoneMsg{key: k, err: err}
		}
	case "n", "N", "esc":
		s.mode = modeBrowse
	}
	return nil
}

// export writes the filtered, sorted rows to a timestamped file in the
// working directory.
func (s *listScreen[T]) export() tea.Cmd {
	rows := s.view.List.Filtered()
	e := s.view.Entity
	name := fmt.Sprintf("%s-%s.csv", e.Key, time.Now().Format("20060102-150405"))
	return func() tea.Msg {
		f, err := os.Create(name)
		if err != nil {
			return toastMsg{Level: listcore.ToastError, Message: "Export failed: " + err.Error()}
		}
		n, err := ExportCSV(f, e, rows)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return toastMsg{Level: listcore.ToastError, Message: "Export failed: " + err.Error()}
		}
		abs, _ := filepath.Abs(name)
		return toastMsg{Level: listcore.ToastSuccess, Message: fmt.Sprintf("Exported %d %s to %s", n, e.Plural, abs)}
	}
}

func (s *listScreen[T]) View() string {
	switch s.mode {
	case modeForm:
		return s.form.view()
	case modeDetail:
		return s.renderDetail()
	}

	var b strings.Builder
	l := s.view.List
	page := l.View()

	b.WriteString(titleStyle.Render(" "+s.view.Entity.Title+" ") + "  " + s.renderFilters(page) + "\n")
	if s.mode == modeSearch {
		b.WriteString(s.search.View() + "\n")
	}

	switch {
	case !s.loaded && s.err != nil:
		b.WriteString("\n" + errorStyle.Render("  Could not load "+s.view.Entity.Plural+": "+s.err.Error()) + "\n")
		b.WriteString(helpStyle.Render("  press r to retry") + "\n")
		return b.String()
	case !s.loaded:
		return b.String() + "\n  Loading..."
	case page.Total == 0:
		if page.Filter.IsZero() {
			b.WriteString("\n  No " + s.view.Entity.Plural + " yet\n")
		} else {
			b.WriteString("\n  No " + s.view.Entity.Plural + " match the current filters (c to clear)\n")
		}
		return b.String()
	}

	if page.Banner {
		b.WriteString(bannerStyle.Render(fmt.Sprintf(" All %d on this page are selected. Press A to select all %d %s. ",
			len(page.Rows), page.Total, s.view.Entity.Plural)) + "\n")
	} else if page.AllPages {
		b.WriteString(bannerStyle.Render(fmt.Sprintf(" All %d %s are selected. Press esc to clear. ",
			page.Total, s.view.Entity.Plural)) + "\n")
	}

	b.WriteString(s.table.View() + "\n")
	b.WriteString(s.renderFooter(page))

	if s.mode == modeConfirm {
		b.WriteString("\n" + boxStyle.Render(fmt.Sprintf("\n  %s\n\n  This action cannot be undone.\n\n  [y] Yes, delete    [n] No, cancel\n", s.confirm.prompt)))
	}
	return b.String()
}

func (s *listScreen[T]) renderFilters(page listcore.Page[T]) string {
	var parts []string
	if page.Filter.ShowArchived {
		parts = append(parts, archivedBadge.Render("ARCHIVED"))
	}
	if term := strings.TrimSpace(page.Filter.SearchTerm); term != "" {
		parts = append(parts, fmt.Sprintf("search: %q", term))
	}
	if st := page.Filter.Status; st != "" && st != listcore.StatusAll {
		parts = append(parts, "status: "+st)
	}
	if page.PendingSearch != page.Filter.SearchTerm && s.mode == modeSearch {
		parts = append(parts, helpStyle.Render("typing..."))
	}
	if page.Loading {
		parts = append(parts, helpStyle.Render("refreshing..."))
	}
	return breadcrumbStyle.Render(strings.Join(parts, " • "))
}

func (s *listScreen[T]) renderFooter(page listcore.Page[T]) string {
	footer := fmt.Sprintf("  Page %d/%d • %d %s", page.Page+1, max(page.TotalPages, 1), page.Total, s.view.Entity.Plural)
	if page.Selected > 0 {
		footer += fmt.Sprintf(" • %d selected", page.Selected)
	}
	return helpStyle.Render(footer)
}

func (s *listScreen[T]) renderDetail() string {
	e := s.view.Entity
	var b strings.Builder
	b.WriteString(titleStyle.Render(" "+e.Title+": "+s.detail.RecordID()+" ") + "\n\n")
	for _, c := range e.Table {
		b.WriteString(fmt.Sprintf("  %-12s %s\n", c.Title+":", c.Value(s.detail)))
	}
	if e.ToForm != nil {
		if items := e.ToForm(s.detail)["items"]; items != "" {
			b.WriteString("\n  Items:\n")
			for _, part := range strings.Split(items, ", ") {
				b.WriteString("    • " + part + "\n")
			}
		}
	}
	if s.detail.IsArchived() {
		b.WriteString("\n  " + archivedBadge.Render("ARCHIVED") + "\n")
	}
	var actions []string
	for _, a := range listcore.AvailableActions(s.detail, s.caps()) {
		actions = append(actions, a.String())
	}
	if len(actions) > 0 {
		b.WriteString("\n  " + helpStyle.Render("Allowed: "+strings.Join(actions, ", ")) + "\n")
	}
	return boxStyle.Render(b.String())
}

func (s *listScreen[T]) Help() string {
	switch s.mode {
	case modeSearch:
		return "type to search • enter: apply now • esc: done"
	case modeForm:
		return "tab: next field/complete • enter: submit • esc: cancel"
	case modeConfirm:
		return "y: confirm • n: cancel"
	case modeDetail:
		return "esc: back"
	}
	return s.help.View(listKeys)
}
