package handlers

import (
	"io/fs"
	"log"
	"net/http"

	"github.com/farmkit/agrorent/internal/middleware"
	"github.com/farmkit/agrorent/internal/models"
	"github.com/farmkit/agrorent/web"
)

// registerPages mounts the HTML shells. Dashboards sit behind the page guard; everything
// else under / is a static asset.
func (r *Router) registerPages() {
	files, err := web.GetFileSystem(r.cfg.Server.FrontendDir)
	if err != nil {
		log.Printf("⚠️ Frontend unavailable: %v", err)
		return
	}

	r.Handle("/", http.RedirectHandler("/login", http.StatusFound)).Methods("GET")
	r.Handle("/login", page(files, "login.html")).Methods("GET")
	r.Handle("/unauthorized", page(files, "unauthorized.html")).Methods("GET")
	r.PathPrefix("/farmer").Handler(middleware.RequirePage(models.RoleFarmer)(page(files, "farmer.html"))).Methods("GET")
	r.PathPrefix("/admin").Handler(middleware.RequirePage(models.RoleAdmin)(page(files, "admin.html"))).Methods("GET")
	r.PathPrefix("/").Handler(http.FileServer(http.FS(files))).Methods("GET")
}

// page serves one HTML file regardless of the sub-path
func page(files fs.FS, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, err := fs.ReadFile(files, name)
		if err != nil {
			http.NotFound(w, req)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(body)
	})
}
