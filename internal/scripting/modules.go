package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine.* Lua tables into L:
//
//	engine.log.debug/info/warn(msg)
//	engine.catalog.ids(base)         -> array of member ids
//	engine.unlock.is_unlocked(base)  -> bool
//	engine.unlock.is_obtained(base)  -> bool
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.newLogModule(L))
	L.SetField(engine, "catalog", m.newCatalogModule(L))
	L.SetField(engine, "unlock", m.newUnlockModule(L))
	L.SetGlobal("engine", engine)
}

func (m *Manager) newLogModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	logAt := func(log func(string, ...zap.Field)) lua.LGFunction {
		return func(L *lua.LState) int {
			log(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}
	}
	L.SetField(mod, "debug", L.NewFunction(logAt(m.logger.Debug)))
	L.SetField(mod, "info", L.NewFunction(logAt(m.logger.Info)))
	L.SetField(mod, "warn", L.NewFunction(logAt(m.logger.Warn)))
	return mod
}

func (m *Manager) newCatalogModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "ids", L.NewFunction(func(L *lua.LState) int {
		base := L.CheckString(1)
		out := L.NewTable()
		if m.IDsOf != nil {
			for _, id := range m.IDsOf(base) {
				out.Append(lua.LNumber(id))
			}
		}
		L.Push(out)
		return 1
	}))
	return mod
}

func (m *Manager) newUnlockModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	predicate := func(fn *func(string) bool) lua.LGFunction {
		return func(L *lua.LState) int {
			base := L.CheckString(1)
			L.Push(lua.LBool(*fn != nil && (*fn)(base)))
			return 1
		}
	}
	L.SetField(mod, "is_unlocked", L.NewFunction(predicate(&m.IsUnlocked)))
	L.SetField(mod, "is_obtained", L.NewFunction(predicate(&m.IsObtained)))
	return mod
}
