package registry

import (
	"cakery_api/pkg/mailer"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ModuleContext carries the shared resources modules need at init time.
type ModuleContext struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Router *gin.Engine
	Mailer mailer.Mailer
}

// Module is implemented by every domain module.
type Module interface {
	// Name returns the module name.
	Name() string

	// Init wires the module: dependency construction and route registration.
	Init(ctx *ModuleContext) error

	// Priority orders initialization; lower initializes first. The order
	// module must come up before payment, which depends on its service.
	Priority() int
}

var moduleRegistry = make(map[string]Module)

// Register adds a module to the registry. Called from module init().
func Register(module Module) {
	moduleRegistry[module.Name()] = module
}

// GetModules returns all registered modules.
func GetModules() map[string]Module {
	return moduleRegistry
}

// InitModules initializes all modules in priority order.
func InitModules(ctx *ModuleContext) error {
	modules := make([]Module, 0, len(moduleRegistry))
	for _, m := range moduleRegistry {
		modules = append(modules, m)
	}

	// Insertion sort; module count is tiny.
	for i := 0; i < len(modules); i++ {
		for j := i + 1; j < len(modules); j++ {
			if modules[i].Priority() > modules[j].Priority() {
				modules[i], modules[j] = modules[j], modules[i]
			}
		}
	}

	for _, module := range modules {
		if err := module.Init(ctx); err != nil {
			return err
		}
	}

	return nil
}
