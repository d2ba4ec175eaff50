package config

import (
    "log"
    "os"

    "github.com/joho/godotenv"
    "gopkg.in/yaml.v3"
)

type Config struct {
    Database struct {
        Host     string `yaml:"host"`
        Port     string `yaml:"port"`
        User     string `yaml:"user"`
        Password string `yaml:"password"`
        DBName   string `yaml:"dbname"`
        SSLMode  string `yaml:"sslmode"`
    } `yaml:"database"`
    Server struct {
        Port         string `yaml:"port"`
        TemplatePath string `yaml:"template_path"`
        StaticPath   string `yaml:"static_path"`
    } `yaml:"server"`
    Plans struct {
        // Путь к локальному файлу SQLite с сохранёнными планами питания
        DBPath string `yaml:"db_path"`
    } `yaml:"plans"`
    AI struct {
        BaseURL string `yaml:"base_url"`
        Model   string `yaml:"model"`
        APIKey  string `yaml:"-"` // только из окружения, в файлах не храним
    } `yaml:"ai"`
    Auth struct {
        // DemoMode включает фиксированные демо-учётки (owner/admin).
        // В боевом режиме обязаны быть настоящие пользователи и ключ AI.
        DemoMode      bool   `yaml:"demo_mode"`
        SessionSecret string `yaml:"session_secret"`
    } `yaml:"auth"`
}

// LoadConfig загружает конфигурацию из файлов и окружения
func LoadConfig() *Config {
    config := &Config{}

    // 1. Загружаем основной конфиг (без секретов)
    data, err := os.ReadFile("config.yaml")
    if err != nil {
        log.Fatalf("Ошибка чтения config.yaml: %v", err)
    }

    err = yaml.Unmarshal(data, config)
    if err != nil {
        log.Fatalf("Ошибка парсинга config.yaml: %v", err)
    }

    // 2. Загружаем секретный конфиг (пароль БД, секрет сессии)
    secretData, err := os.ReadFile("config.secret.yaml")
    if err != nil {
        log.Fatalf("Ошибка чтения config.secret.yaml: %v", err)
    }

    var secretConfig struct {
        Database struct {
            Password string `yaml:"password"`
        } `yaml:"database"`
        Auth struct {
            SessionSecret string `yaml:"session_secret"`
        } `yaml:"auth"`
    }

    err = yaml.Unmarshal(secretData, &secretConfig)
    if err != nil {
        log.Fatalf("Ошибка парсинга config.secret.yaml: %v", err)
    }

    // 3. Объединяем конфиги - секреты берём из секретного файла
    config.Database.Password = secretConfig.Database.Password
    config.Auth.SessionSecret = secretConfig.Auth.SessionSecret

    if config.Database.Password == "" {
        log.Fatal("Database password is required in config.secret.yaml")
    }

    // 4. Ключ AI строго из окружения (.env допустим для разработки).
    // Никаких зашитых ключей в коде — см. GEMINI_API_KEY.
    _ = godotenv.Load()
    config.AI.APIKey = os.Getenv("GEMINI_API_KEY")
    if config.AI.APIKey == "" && !config.Auth.DemoMode {
        log.Fatal("GEMINI_API_KEY is required outside demo mode")
    }

    if config.Plans.DBPath == "" {
        config.Plans.DBPath = "./saved_plans.db"
    }

    log.Println("Конфигурация успешно загружена")
    return config
}
