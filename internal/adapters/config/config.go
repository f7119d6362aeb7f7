package config

import (
	"fmt"
	"log"
	"os"
	"time"

	postgresStorage "github.com/gatherkit/rsvp-service/internal/adapters/database/postgres"
	redisClient "github.com/gatherkit/rsvp-service/internal/adapters/database/redis"
	"github.com/gatherkit/rsvp-service/pkg/logger"
	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type Config struct {
	Database   *gorm.DB
	Redis      *redisClient.Client
	SMTPDialer *gomail.Dialer
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		panic(err)
	}
}

func Get() *Config {
	initConfig()

	timeLocation, err := time.LoadLocation(viper.GetString("settings.timezone"))
	if err != nil {
		panic(err)
	}

	err = logger.Init(logger.Config{
		Debug:        viper.GetBool("settings.debug"),
		TimeLocation: timeLocation,
		LogToFile:    viper.GetBool("settings.log-to-file"),
		LogsDir:      viper.GetString("settings.logs-dir"),
	})
	if err != nil {
		panic(err)
	}

	gormConfig := &gorm.Config{
		// Unique violations must come back as gorm.ErrDuplicatedKey so the
		// storage layer can translate them once for any backing store.
		TranslateError: true,
	}
	if viper.GetBool("settings.debug") {
		gormConfig.Logger = gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				SlowThreshold: time.Second,
				LogLevel:      gormLogger.Info,
				Colorful:      true,
			},
		)
	}

	dsn := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%d sslmode=disable",
		viper.GetString("service.database.user"),
		viper.GetString("service.database.password"),
		viper.GetString("service.database.name"),
		viper.GetString("service.database.host"),
		viper.GetInt("service.database.port"),
	)

	database, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		logger.Log.Panicf("Failed to connect to the database: %v", err)
	} else {
		logger.Log.Info("Successfully connected to the database")
	}

	errMigrate := database.AutoMigrate(postgresStorage.Migrations...)
	if errMigrate != nil {
		logger.Log.Panicf("Failed to migrate database: %v", errMigrate)
	}

	rdb, err := redisClient.New(redisClient.Options{
		Host:     viper.GetString("service.redis.host"),
		Port:     viper.GetString("service.redis.port"),
		Password: viper.GetString("service.redis.password"),
	})
	if err != nil {
		logger.Log.Panicf("Failed to connect to redis: %v", err)
	} else {
		logger.Log.Info("Successfully connected to redis")
	}

	dialer := gomail.NewDialer(
		viper.GetString("service.smtp.host"),
		viper.GetInt("service.smtp.port"),
		viper.GetString("service.smtp.user"),
		viper.GetString("service.smtp.password"),
	)

	return &Config{
		Database:   database,
		Redis:      rdb,
		SMTPDialer: dialer,
	}
}
