package main

import (
	adminhandler "docbook/internal/admin/handler"
	adminservice "docbook/internal/admin/service"
	appointmentsrepo "docbook/internal/appointments/repository"
	"docbook/internal/doctors/handler"
	"docbook/internal/doctors/repository"
	"docbook/internal/doctors/service"
	"docbook/internal/doctors/validator"
	patientsrepo "docbook/internal/patients/repository"
	"docbook/pkg/app"
	"docbook/pkg/cache"
	"docbook/pkg/config"

	"github.com/julienschmidt/httprouter"
)

const ServiceName = "doctors"

// apiHandler mounts the doctor and admin route groups on one router.
type apiHandler struct {
	doctors *handler.DoctorHandler
	admin   *adminhandler.AdminHandler
}

func (h *apiHandler) RegisterRoutes(router *httprouter.Router) {
	h.doctors.RegisterRoutes(router)
	h.admin.RegisterRoutes(router)
}

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Doctors service")
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(initServices(cfg))
	serverApp.Run()
}

func initServices(cfg *config.Config) *apiHandler {
	doctorValidator := validator.NewDoctorValidator(cfg.Log)
	doctorRepo := repository.NewMongoDoctorRepository(cfg)
	patientRepo := patientsrepo.NewMongoPatientRepository(cfg)
	appointmentRepo := appointmentsrepo.NewMongoAppointmentRepository(cfg)
	doctorCache := cache.NewDoctorCache(cfg.Client.Redis, cfg.DoctorCacheTTL, cfg.Log)

	doctorService := service.NewDoctorService(
		doctorRepo,
		appointmentRepo,
		doctorCache,
		doctorValidator,
		cfg,
	)
	adminService := adminservice.NewAdminService(
		doctorRepo,
		patientRepo,
		appointmentRepo,
		doctorCache,
		doctorValidator,
		cfg,
	)

	cfg.Log.Info("Doctor services initialized", "database", cfg.MongoDatabaseName)
	return &apiHandler{
		doctors: handler.NewDoctorHandler(doctorService, cfg.Log),
		admin:   adminhandler.NewAdminHandler(adminService, doctorService, cfg.Log),
	}
}
