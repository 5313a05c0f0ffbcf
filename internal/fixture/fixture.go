// Package fixture serves a small demo storefront for self-contained runs.
// It renders every element class the default suite targets, including the
// deliberately unstable ones (live timestamp, visitor counter, rotating
// promo banner), so stabilization has something real to suppress. Content
// is generated from a fixed seed and identical on every start.
package fixture

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/web"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// catalogSeed pins the generated product catalog. Changing it changes
// every baseline snapshot of the demo site.
const catalogSeed = 7

type Product struct {
	Name        string
	Description string
	Price       float64
}

func catalog(n int) []Product {
	f := gofakeit.New(catalogSeed)
	out := make([]Product, n)
	for i := range out {
		out[i] = Product{
			Name:        f.ProductName(),
			Description: f.Sentence(8),
			Price:       f.Price(9, 199),
		}
	}
	return out
}

// Server hosts the demo site. Start binds the listener; the zero port
// picks a free one, which is how tests and self-contained runs use it.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	products   []Product
	tmpl       *template.Template

	mu      sync.Mutex
	addr    string
	running bool
}

func New() *Server {
	s := &Server{
		products: catalog(8),
		tmpl:     template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/checkout", s.handleCheckout)
	mux.HandleFunc("/search", s.handleSearch)
	mux.Handle("/static/", http.FileServer(http.FS(staticFS)))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		web.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.httpServer = &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Start listens on addr and serves in the background, returning the bound
// address. An empty addr binds a random loopback port.
func (s *Server) Start(addr string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return s.addr, nil
	}
	if addr == "" {
		addr = "127.0.0.1:0"
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("fixture listen: %w", err)
	}
	s.listener = ln
	s.addr = ln.Addr().String()
	s.running = true

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("fixture server died", "err", err)
		}
	}()

	slog.Info("fixture site up", "addr", s.addr)
	return s.addr, nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// URL returns the base URL of the running server.
func (s *Server) URL() string {
	addr := s.Addr()
	if addr == "" {
		return ""
	}
	return "http://" + addr
}

// Handler exposes the mux for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("render failed", "template", name, "err", err)
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.render(w, "home.html", map[string]any{
		"Products": s.products,
		"Now":      time.Now().Format("2006-01-02 15:04:05"),
	})
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	items := s.products[:3]
	var total float64
	for _, p := range items {
		total += p.Price
	}
	s.render(w, "checkout.html", map[string]any{
		"Items":     items,
		"Total":     total,
		"Confirmed": r.Method == http.MethodPost,
		"Now":       time.Now().Format("2006-01-02 15:04:05"),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	var hits []Product
	for _, p := range s.products {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
			hits = append(hits, p)
		}
	}
	s.render(w, "results.html", map[string]any{
		"Query": query,
		"Hits":  hits,
		"Now":   time.Now().Format("2006-01-02 15:04:05"),
	})
}
