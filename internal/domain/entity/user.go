package entity

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu            UserState = "main_menu"            // В главном меню
	StateAwaitingBaseline    UserState = "awaiting_baseline"    // Ожидание эталонного снимка
	StateAwaitingMaintenance UserState = "awaiting_maintenance" // Ожидание снимка обслуживания
	StateProcessing          UserState = "processing"           // Обработка пары снимков
)

// User представляет пользователя бота
type User struct {
	ID          int64     // Telegram User ID
	ChatID      int64     // Telegram Chat ID
	State       UserState // Текущее состояние пользователя
	AssetID     string    // Идентификатор трансформатора в текущей проверке
	Sensitivity *float64  // Чувствительность 0..100, nil: адаптивные пороги
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// BeginInspection запоминает параметры новой проверки.
func (u *User) BeginInspection(assetID string, sensitivity *float64) {
	u.AssetID = assetID
	u.Sensitivity = sensitivity
	u.State = StateAwaitingBaseline
}

// Reset возвращает пользователя в главное меню и забывает параметры проверки.
func (u *User) Reset() {
	u.AssetID = ""
	u.Sensitivity = nil
	u.State = StateMainMenu
}
