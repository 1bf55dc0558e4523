package app

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/wavecast/internal/cache"
	"github.com/llehouerou/wavecast/internal/keymap"
	"github.com/llehouerou/wavecast/internal/playback"
	"github.com/llehouerou/wavecast/internal/ui/helpbindings"
	"github.com/llehouerou/wavecast/internal/ui/queuepanel"
)

// Volume controls the output level; *player.Speaker implements it.
type Volume interface {
	Volume() float64
	SetVolume(level float64)
	Muted() bool
	SetMuted(muted bool)
}

// CacheStats reports cache usage; *cache.Manager implements it.
type CacheStats interface {
	Stats() cache.Stats
}

// Options wires the model to its collaborators. Volume and Cache may be nil.
type Options struct {
	Service   playback.Service
	Volume    Volume
	Cache     CacheStats
	Channel   string // reconnect target for the "r" key
	Requester string // recorded on every song added from this terminal
	PageSize  int
}

const volumeStep = 0.05

var inputKeys = keymap.NewResolver(keymap.ByContext(keymap.ContextInput))

// Model is the root application model.
type Model struct {
	svc       playback.Service
	sub       *playback.Subscription
	vol       Volume
	cache     CacheStats
	channel   string
	requester string
	keys      *keymap.Resolver

	queue    queuepanel.Model
	help     helpbindings.Model
	showHelp bool
	input    textinput.Model
	inputing bool

	status    string
	statusErr bool
	width     int
	height    int
}

// New creates the model and subscribes to the service.
func New(opts Options) Model {
	input := textinput.New()
	input.Placeholder = "https://www.youtube.com/watch?v=…"
	input.Prompt = "url> "
	input.CharLimit = 2048

	queue := queuepanel.New(opts.Service, opts.PageSize)
	queue.SetFocused(true)

	return Model{
		svc:       opts.Service,
		sub:       opts.Service.Subscribe(),
		vol:       opts.Volume,
		cache:     opts.Cache,
		channel:   opts.Channel,
		requester: opts.Requester,
		keys:      keymap.NewResolver(keymap.ByContext(keymap.ContextGlobal, keymap.ContextPlayback)),
		queue:     queue,
		help:      helpbindings.New(),
		input:     input,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.WatchServiceEvents(), TickCmd())
}

// Status returns the status line text and whether it reports an error.
func (m Model) Status() (string, bool) {
	return m.status, m.statusErr
}

func (m *Model) setStatus(text string) {
	m.status = text
	m.statusErr = false
}

func (m *Model) setError(text string) {
	m.status = text
	m.statusErr = true
}
