package main

import (
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"schoolops/config"
	"schoolops/domain"
	"schoolops/services/automation/delivery"
	"schoolops/services/automation/repository"
	"schoolops/services/automation/scheduler"
	"schoolops/services/automation/usecase"
)

var log *logrus.Logger
var wg sync.WaitGroup

const useCaseTimeout = 5 * time.Minute

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, relying on environment")
	}

	log = config.GetLogrusInstance()

	startHTTP()
}

func initSMSSender() domain.SMSSender {
	if config.GetSMSGateway() == "twilio" {
		client, from, err := config.InitTwilio()
		if err != nil {
			log.Fatalf("Failed to initialize twilio: %v", err)
		}
		return repository.NewTwilioSender(client, from)
	}
	log.Warn("No SMS gateway configured, using mock sender")
	return repository.NewMockSender(log)
}

func initEmailSender() domain.EmailSender {
	dialer, from, err := config.InitEmailer()
	if err != nil {
		log.Warnf("Email sender not configured: %v", err)
		return nil
	}
	return repository.NewEmailSender(dialer, from)
}

func startHTTP() {
	log.Info("Starting HTTP")
	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	db, err := config.BootDB()
	if err != nil {
		log.Fatalf("Failed to boot DB: %v", err)
		return
	}

	sms := initSMSSender()
	email := initEmailSender()

	studentRepo := repository.NewStudentRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	reminderRepo := repository.NewReminderRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	cacheRepo := repository.NewCacheRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	academicRepo := repository.NewAcademicRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	authRepo := repository.NewAuthRepository(db)

	reminderUC := usecase.NewReminderUseCase(reminderRepo, feeRepo, settingsRepo, sms, email, log, useCaseTimeout)
	alertUC := usecase.NewAlertUseCase(alertRepo, studentRepo, academicRepo, settingsRepo, sms, log, useCaseTimeout)
	analyticsUC := usecase.NewAnalyticsUseCase(studentRepo, feeRepo, paymentRepo, academicRepo, cacheRepo, log, useCaseTimeout)
	batchUC := usecase.NewBatchUseCase(studentRepo, assignmentRepo, academicRepo, settingsRepo, log, useCaseTimeout)
	authUC := usecase.NewAuthUseCase(authRepo, 30*time.Second)

	sched := scheduler.New(scheduler.NewJobs(reminderUC, alertUC, analyticsUC, cacheRepo, log), log)
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
		return
	}

	delivery.NewAuthDelivery(app, authUC)
	delivery.NewAutomationDelivery(app, reminderUC, sched)
	delivery.NewAnalyticsDelivery(app, analyticsUC)
	delivery.NewBatchDelivery(app, batchUC)

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Infof("Starting HTTP server on port %s", config.GetFiberHttpPort())
		if err := app.Listen(config.GetFiberListenAddress()); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, os.Kill)

	<-signalChan

	log.Info("Shutting down the server...")

	sched.Stop()
	if err := app.Shutdown(); err != nil {
		log.Errorf("Error during server shutdown: %v", err)
	}

	wg.Wait()
	log.Info("Server shut down gracefully")
}
