package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk"
	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"matSideAPI/handlers"
	"matSideAPI/internal/notification"
	"matSideAPI/middleware"
	"matSideAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool              *pgxpool.Pool
	notificationService *services.NotificationService
	userService         *services.UserService
	billingService      *services.BillingService
	schoolService       *services.SchoolService
	challengeService    *services.ChallengeService
	journalService      *services.JournalService
	chatService         *services.ChatService
	scheduleService     *services.ScheduleService
	fcmService          *notification.FCMService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to Postgres")

	paddleAPIKey := os.Getenv("PADDLE_API_KEY")
	if paddleAPIKey == "" {
		log.Fatal("PADDLE_API_KEY environment variable is not set")
	}
	paddleClient, err := paddle.New(paddleAPIKey, paddle.WithBaseURL(paddle.SandboxBaseURL))
	if err != nil {
		log.Fatal("Failed to initialize Paddle client:", err)
	}

	notificationService = services.NewNotificationService(dbPool)
	userService = services.NewUserService(dbPool)
	billingService = services.NewBillingService(dbPool, paddleClient, notificationService)
	schoolService = services.NewSchoolService(dbPool, billingService, notificationService)
	challengeService = services.NewChallengeService(dbPool, schoolService)
	journalService = services.NewJournalService(dbPool)
	chatService = services.NewChatService(dbPool, schoolService, notificationService)
	scheduleService = services.NewScheduleService(dbPool, schoolService)

	if err := billingService.SeedPolicy(ctx); err != nil {
		log.Fatal("Failed to seed pricing policy:", err)
	}

	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		notificationService.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()
	defer notificationService.Stop()

	userHandler := handlers.NewUserHandler(userService)
	schoolHandler := handlers.NewSchoolHandler(schoolService)
	challengeHandler := handlers.NewChallengeHandler(challengeService)
	journalHandler := handlers.NewJournalHandler(journalService)
	chatHandler := handlers.NewChatHandler(chatService)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService)
	billingHandler := handlers.NewBillingHandler(billingService, userService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	webhookHandler := handlers.NewWebhookHandler(userService)

	r := mux.NewRouter()

	rateLimiter := middleware.NewRateLimiter(5, 30)
	go rateLimiter.CleanupVisitors()

	r.Use(rateLimiter.Middleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "matside-api"}`))
	}).Methods("GET")

	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")
	r.HandleFunc("/webhooks/paddle", billingHandler.PaddleWebhookHandler).Methods("POST")
	r.HandleFunc("/payment-success", billingHandler.PaymentSuccessPage).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/update-profile", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user/delete-account", userHandler.DeleteAccount).Methods("DELETE")
	protected.HandleFunc("/admin/users/{userID}/promote-coach", userHandler.PromoteToCoach).Methods("PUT")

	protected.HandleFunc("/schools", schoolHandler.ListSchools).Methods("GET")
	protected.HandleFunc("/schools", schoolHandler.CreateSchool).Methods("POST")
	protected.HandleFunc("/schools/{schoolID}", schoolHandler.GetSchool).Methods("GET")
	protected.HandleFunc("/schools/{schoolID}", schoolHandler.UpdateSchool).Methods("PUT")
	protected.HandleFunc("/schools/{schoolID}/enrollments", schoolHandler.ListEnrollments).Methods("GET")

	protected.HandleFunc("/enrollments", schoolHandler.RequestEnrollment).Methods("POST")
	protected.HandleFunc("/enrollments/mine", schoolHandler.ListMyEnrollments).Methods("GET")
	protected.HandleFunc("/enrollments/{enrollmentID}/review", schoolHandler.ReviewEnrollment).Methods("PUT")

	protected.HandleFunc("/schools/{schoolID}/challenges", challengeHandler.ListSchoolChallenges).Methods("GET")
	protected.HandleFunc("/schools/{schoolID}/challenges", challengeHandler.CreateChallenge).Methods("POST")
	protected.HandleFunc("/challenges/{challengeID}/results", challengeHandler.LogResult).Methods("POST")
	protected.HandleFunc("/challenges/{challengeID}/leaderboard", challengeHandler.GetLeaderboard).Methods("GET")

	protected.HandleFunc("/journal", journalHandler.CreateEntry).Methods("POST")
	protected.HandleFunc("/journal", journalHandler.GetMonth).Methods("GET")
	protected.HandleFunc("/journal/{entryID}", journalHandler.DeleteEntry).Methods("DELETE")

	protected.HandleFunc("/chat/messages", chatHandler.SendMessage).Methods("POST")
	protected.HandleFunc("/chat/conversations", chatHandler.ListConversations).Methods("GET")
	protected.HandleFunc("/chat/conversations/{conversationID}/messages", chatHandler.GetMessages).Methods("GET")
	protected.HandleFunc("/chat/conversations/{conversationID}/messages", chatHandler.Reply).Methods("POST")

	protected.HandleFunc("/schools/{schoolID}/classes", scheduleHandler.ListWeek).Methods("GET")
	protected.HandleFunc("/schools/{schoolID}/classes", scheduleHandler.CreateClass).Methods("POST")
	protected.HandleFunc("/classes/{classID}", scheduleHandler.DeleteClass).Methods("DELETE")
	protected.HandleFunc("/classes/{classID}/check-in-code", scheduleHandler.IssueCheckInCode).Methods("POST")
	protected.HandleFunc("/classes/{classID}/attendance", scheduleHandler.ListAttendance).Methods("GET")
	protected.HandleFunc("/check-in", scheduleHandler.CheckIn).Methods("POST")

	protected.HandleFunc("/billing/schools/{schoolID}/quote", billingHandler.QuoteSchoolPrice).Methods("GET")
	protected.HandleFunc("/billing/schools/{schoolID}/subscribe", billingHandler.Subscribe).Methods("POST")
	protected.HandleFunc("/billing/subscriptions", billingHandler.GetMySubscriptions).Methods("GET")
	protected.HandleFunc("/billing/subscriptions/{subscriptionID}", billingHandler.CancelSubscription).Methods("DELETE")
	protected.HandleFunc("/billing/policy", billingHandler.GetPolicy).Methods("GET")
	protected.HandleFunc("/billing/policy", billingHandler.UpdatePolicy).Methods("PATCH")

	protected.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
	protected.HandleFunc("/notifications/unread-count", notificationHandler.GetUnreadCount).Methods("GET")
	protected.HandleFunc("/notifications/{notificationID}/read", notificationHandler.MarkAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/read-all", notificationHandler.MarkAllAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
