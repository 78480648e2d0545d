// Command eclserver is a two-route (/query, /explain) HTTP façade over
// the ECL engine, generalizing the teacher's cmd/server/main.go
// net/http.ServeMux + hand-rolled CORS middleware into
// github.com/go-chi/chi/v5 routing and github.com/go-chi/cors, per
// SPEC_FULL.md's ambient HTTP stack.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/snomedql/ecl"
	"github.com/snomedql/ecl/internal/memstore"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type queryRequest struct {
	ECL string `json:"ecl"`
}

type queryResponse struct {
	ConceptIDs []string `json:"conceptIds"`
	ElapsedMS  float64  `json:"elapsedMs"`
	Traversed  int      `json:"traversed"`
	CacheHit   bool     `json:"cacheHit"`
}

func newRouter(ex *ecl.Executor) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173"},
		AllowedMethods: []string{"POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Post("/query", func(w http.ResponseWriter, req *http.Request) {
		var body queryRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if body.ECL == "" {
			writeError(w, http.StatusBadRequest, "missing field: ecl")
			return
		}

		ids, stats, err := ex.Execute(req.Context(), body.ECL)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = id.String()
		}
		writeJSON(w, http.StatusOK, queryResponse{
			ConceptIDs: out,
			ElapsedMS:  float64(stats.Elapsed.Microseconds()) / 1000,
			Traversed:  stats.Traversed,
			CacheHit:   stats.CacheHit,
		})
	})

	r.Post("/explain", func(w http.ResponseWriter, req *http.Request) {
		var body queryRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		plan, err := ex.Explain(body.ECL)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, plan)
	})

	return r
}

func main() {
	port := flag.Int("port", 8080, "port to listen on")
	storePath := flag.String("store", "", "path to a memstore JSON snapshot")
	flag.Parse()

	if *storePath == "" {
		fmt.Fprintln(os.Stderr, "eclserver: --store is required")
		os.Exit(1)
	}
	f, err := os.Open(*storePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "eclserver: opening %q: %v\n", *storePath, err)
		os.Exit(1)
	}
	s, err := memstore.ReadJSON(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "eclserver: reading %q: %v\n", *storePath, err)
		os.Exit(1)
	}

	ex := ecl.New(s)
	addr := fmt.Sprintf(":%d", *port)
	fmt.Printf("eclserver listening on %s\n", addr)

	if err := http.ListenAndServe(addr, newRouter(ex)); err != nil {
		fmt.Fprintf(os.Stderr, "eclserver: server error: %v\n", err)
	}
}
