package main

import (
	"fmt"
	"html/template"
	"io"
	golog "log"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"restore-site/config"
	"restore-site/database"
	"restore-site/ffmpeg"
	"restore-site/handlers"
	"restore-site/restorations"
	"restore-site/users"
	"restore-site/videos"
)

func ensureAdminAccount(db *gorm.DB) error {

	var user users.User
	if err := db.Where("username = ?", "admin").First(&user).Error; err != nil {
		// no such user

		password, err := config.GetAdminInitialPassword()
		if err != nil {
			return err
		}

		err = users.Create(db, "admin", password)
		if err != nil {
			return err
		}
	}
	return nil
}

func main() {

	initLogger()

	log.Infof("GitSHA: %s", config.GetGitSHA())
	log.Infof("BuildDate: %s", config.GetBuildDate())

	ffmpeg.Init(log)
	videos.Init(log)
	restorations.Init(log)
	if err := handlers.Init(log); err != nil {
		log.Panicf("%v", err)
	}

	gormLogger := logger.New(
		golog.New(os.Stdout, "\r\n", golog.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			ParameterizedQueries:      true,        // Don't include params in the SQL log
			Colorful:                  false,       // Disable color
		},
	)

	// Create config database
	err := os.MkdirAll(config.GetConfigDir(), 0700)
	if err != nil {
		log.Panicf("failed to create config dir %s", config.GetConfigDir())
	}

	// Initialize database
	dbPath := filepath.Join(config.GetConfigDir(), "restorations.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		log.Panicf("failed to connect to database %s", dbPath)
	}

	// set only a single connection so we don't actually have concurrent writes
	sqlDB, err := db.DB()
	if err != nil {
		log.Panicln("failed to retrieve database")
	}
	sqlDB.SetMaxOpenConns(1)

	// Migrate the schema
	db.AutoMigrate(&videos.Video{}, &restorations.Restoration{},
		&users.User{}, &handlers.TempURL{})

	database.Init(db, log)
	defer database.Fini()

	go handlers.PeriodicCleanup()

	// create a user
	err = ensureAdminAccount(db)
	if err != nil {
		panic(fmt.Sprintf("failed to create admin user: %v", err))
	}

	// Initialize Echo
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Form validation
	e.Validator = &formValidator{validator: validator.New()}

	// Templates
	t := &Template{
		templates: template.Must(template.ParseGlob("templates/*.html")),
	}
	e.Renderer = t

	// Routes
	e.GET("/", handlers.HomeGet)
	e.GET("/login", handlers.LoginGet)
	e.POST("/login", handlers.LoginPost)
	e.GET("/logout", handlers.Logout)
	e.GET("/restore", handlers.RestoreGet, handlers.AuthMiddleware)
	e.POST("/upload", handlers.UploadPost, handlers.AuthMiddleware)
	e.POST("/link", handlers.LinkPost, handlers.AuthMiddleware)
	e.GET("/videos", handlers.VideosGet, handlers.AuthMiddleware)
	e.GET("/video/:id", handlers.VideoGet, handlers.AuthMiddleware)
	e.POST("/video/:id/restore", handlers.RestorePost, handlers.AuthMiddleware)
	e.POST("/video/:id/retry", handlers.RetryPost, handlers.AuthMiddleware)
	e.POST("/video/:id/delete", handlers.DeletePost, handlers.AuthMiddleware)
	e.GET("/video/:id/result", handlers.ResultGet, handlers.AuthMiddleware)
	e.GET("/events", handlers.RestorationEvents, handlers.AuthMiddleware)
	e.GET("/temp/:token", handlers.TempGet)
	e.GET("/status", handlers.StatusGet, handlers.AuthMiddleware)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	staticGroup := e.Group("/static")
	staticGroup.Static("/", "static")

	// Start server
	e.Logger.Fatal(e.Start(":8080"))
}

// Template renderer
type Template struct {
	templates *template.Template
}

func (t *Template) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

type formValidator struct {
	validator *validator.Validate
}

func (v *formValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}
