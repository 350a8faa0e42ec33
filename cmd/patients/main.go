package main

import (
	"docbook/internal/patients/handler"
	"docbook/internal/patients/repository"
	"docbook/internal/patients/service"
	"docbook/internal/patients/validator"
	"docbook/pkg/app"
	"docbook/pkg/config"
)

const ServiceName = "patients"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Patients service")
	patientService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewPatientHandler(patientService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.PatientService {
	patientValidator := validator.NewPatientValidator(cfg.Log)
	patientRepo := repository.NewMongoPatientRepository(cfg)
	patientService := service.NewPatientService(patientRepo, patientValidator, cfg)

	cfg.Log.Info("Patient service initialized", "database", cfg.MongoDatabaseName)
	return patientService
}
