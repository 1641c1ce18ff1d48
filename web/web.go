// Package web serves the browser front end: a few server-rendered pages and
// the static script that talks to the JSON API.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

type feature struct {
	Title       string
	Description string
}

type roleCard struct {
	Title       string
	Description string
	CTA         string
	Role        string
}

var features = []feature{
	{"Reduce Food Waste", "Connect surplus food with those who need it most. Every donation counts."},
	{"Community Impact", "Build stronger communities by supporting local NGOs and food banks."},
	{"Track Impact", "Monitor donations, claims, and the real-world impact of your contributions."},
}

var roleCards = []roleCard{
	{"Donors", "Have surplus food? Share it with NGOs and make a difference.", "Become a Donor", "donor"},
	{"NGOs", "Find available food donations and claim them for your beneficiaries.", "Join as NGO", "ngo"},
	{"Volunteers", "Help coordinate donations and support the food sharing network.", "Volunteer Now", "volunteer"},
}

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// Register mounts the pages and /static on r. It installs r's HTML renderer.
func Register(r *gin.Engine) error {
	tmpl, err := Templates()
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return err
	}
	r.StaticFS("/static", http.FS(static))

	r.GET("/", page("index.html", "Reduce Waste, Feed Communities"))
	r.GET("/login", page("login.html", "Sign In"))
	r.GET("/register", page("register.html", "Create Account"))
	r.GET("/dashboard", page("dashboard.html", "Dashboard"))
	return nil
}

func page(name, title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, name, gin.H{
			"Title":    title,
			"Features": features,
			"Roles":    roleCards,
			"Role":     c.Query("role"),
		})
	}
}
