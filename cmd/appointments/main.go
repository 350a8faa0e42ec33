package main

import (
	"docbook/internal/appointments/handler"
	"docbook/internal/appointments/repository"
	"docbook/internal/appointments/service"
	"docbook/internal/appointments/validator"
	doctorsrepo "docbook/internal/doctors/repository"
	patientsrepo "docbook/internal/patients/repository"
	"docbook/pkg/app"
	"docbook/pkg/config"
	"docbook/pkg/events"
)

const ServiceName = "appointments"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Appointments service")
	appointmentHandler := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(appointmentHandler)
	serverApp.Run()
}

func initServices(cfg *config.Config) *handler.AppointmentHandler {
	appointmentValidator := validator.NewAppointmentValidator(cfg.Log)
	appointmentRepo := repository.NewMongoAppointmentRepository(cfg)
	slotLedger := repository.NewMongoSlotLedger(cfg)
	doctorRepo := doctorsrepo.NewMongoDoctorRepository(cfg)
	patientRepo := patientsrepo.NewMongoPatientRepository(cfg)

	publisher := initPublisher(cfg)

	bookingService := service.NewBookingService(
		appointmentRepo,
		slotLedger,
		doctorRepo,
		patientRepo,
		publisher,
		appointmentValidator,
		cfg,
	)
	availabilityService := service.NewAvailabilityService(doctorRepo, cfg)

	cfg.Log.Info("Appointment services initialized", "database", cfg.MongoDatabaseName)
	return handler.NewAppointmentHandler(bookingService, availabilityService, cfg)
}

func initPublisher(cfg *config.Config) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		cfg.Log.Warn("No Kafka brokers configured, appointment events disabled")
		return events.NopPublisher{}
	}

	publisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, ServiceName, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Kafka publisher", "error", err)
	}
	return publisher
}
