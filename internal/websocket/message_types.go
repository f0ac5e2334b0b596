package websocket

// События, которые сервер отправляет дашбордам
const (
	// CASE_UPDATED сообщает участникам дела о смене статуса
	CASE_UPDATED = "CASE_UPDATED"

	// CASE_AVAILABLE сообщает роли, что в общем пуле появилось или исчезло дело
	CASE_AVAILABLE = "CASE_AVAILABLE"

	// SERVER_ERROR - ответ на некорректное сообщение клиента
	SERVER_ERROR = "server:error"

	// SERVER_PONG - ответ на client:ping
	SERVER_PONG = "server:pong"
)

// Сообщения от клиента
const (
	// CLIENT_PING проверяет, что соединение живо
	CLIENT_PING = "client:ping"
)
